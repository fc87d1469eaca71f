package models

import (
	"fmt"
	"sort"
	"time"
)

// 导出列名 (与原始报表格式保持一致)
const (
	HeaderAirportName     = "AIRPORT NAME"
	HeaderAirportCode     = "ICAO AIRPORT CODE"
	HeaderAirline         = "AIRLINE"
	HeaderTypeName        = "TYPE NAME"
	HeaderTypeCode        = "TYPE CODE"
	HeaderRegistration    = "REGISTRATION"
	HeaderDate            = "DATE"
	HeaderGroundTime      = "GROUND TIME"
	HeaderFromFlight      = "FROM FLIGHT"
	HeaderFromAirport     = "FROM AIRPORT"
	HeaderFromAirportCode = "FROM AIRPORT CODE"
	HeaderArrivalTime     = "ARRIVAL TIME"
	HeaderToFlight        = "TO FLIGHT"
	HeaderToAirport       = "TO AIRPORT"
	HeaderToAirportCode   = "TO AIRPORT CODE"
	HeaderDepartureTime   = "DEPARTURE TIME"
)

// ExportHeaders 导出表头 (顺序固定,决定每行的列排列)
var ExportHeaders = []string{
	HeaderAirportName, HeaderAirportCode, HeaderAirline, HeaderTypeName,
	HeaderTypeCode, HeaderRegistration, HeaderDate, HeaderGroundTime,
	HeaderFromFlight, HeaderFromAirport, HeaderFromAirportCode,
	HeaderArrivalTime, HeaderToFlight, HeaderToAirport,
	HeaderToAirportCode, HeaderDepartureTime,
}

// UnknownAirport 缺失机场信息的占位值
const UnknownAirport = "Unknown"

// AttributeSource 可向导出行提供列值的实体
// 实现者按列名返回对应的值,空字符串表示该实体不提供此列
type AttributeSource interface {
	// GetAttribute 返回指定列的值,不提供该列时返回空字符串
	GetAttribute(attribute string) string
}

// WriteInfo 将source提供的列值写入info
// 仅覆盖source实际提供的列,保留其他列的现有值
func WriteInfo(info map[string]string, source AttributeSource) {
	for _, header := range ExportHeaders {
		value := source.GetAttribute(header)
		if value == "" {
			continue
		}
		info[header] = value
	}
}

// Airport 机场
type Airport struct {
	Code string `json:"code"` // ICAO代码
	Name string `json:"name"` // 机场名称
}

// String 实现Stringer接口
func (a *Airport) String() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.Code)
}

// Equal 判断两个机场是否相同 (按ICAO代码)
func (a *Airport) Equal(other *Airport) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Code == other.Code
}

// Flight 单个航班
type Flight struct {
	Name        string   `json:"name"`        // 航班号 (如 "AB123")
	Source      *Airport `json:"source"`      // 出发机场 (可能未知)
	Destination *Airport `json:"destination"` // 到达机场 (可能未知)

	// FlightTime 计划飞行时长
	FlightTime time.Duration `json:"flight_time"`

	// 时间戳 (UTC,nil表示页面未提供)
	ScheduledDeparture *time.Time `json:"scheduled_departure,omitempty"`
	ActualDeparture    *time.Time `json:"actual_departure,omitempty"`
	ScheduledArrival   *time.Time `json:"scheduled_arrival,omitempty"`
	ActualArrival      *time.Time `json:"actual_arrival,omitempty"`
}

// IsExtractable 判断航班是否包含配对分析所需的最低信息量
// 要求: 至少一个已知机场 + 至少一个实际起降时间
func (f *Flight) IsExtractable() bool {
	return (f.Source != nil || f.Destination != nil) &&
		(f.ActualDeparture != nil || f.ActualArrival != nil)
}

// sortKey 航班排序依据: 实际起飞时间,缺失时用实际降落时间
func (f *Flight) sortKey() time.Time {
	if f.ActualDeparture != nil {
		return *f.ActualDeparture
	}
	if f.ActualArrival != nil {
		return *f.ActualArrival
	}
	return time.Time{}
}

// Aircraft 单架飞机
type Aircraft struct {
	Registration string `json:"registration"` // 注册号 (如 "D-AIMA")
	Link         string `json:"link"`         // 详情页相对链接

	TypeName string `json:"type_name"` // 机型名称 (如 "Airbus A380-841")
	TypeCode string `json:"type_code"` // 机型代码 (如 "A388")

	Flights []*Flight `json:"flights"` // 航班历史
}

// NewAircraft 创建飞机实例
func NewAircraft(registration, link string) *Aircraft {
	return &Aircraft{
		Registration: registration,
		Link:         link,
		Flights:      make([]*Flight, 0),
	}
}

// AddDetails 填充机型信息
func (a *Aircraft) AddDetails(typeName, typeCode string) {
	a.TypeName = typeName
	a.TypeCode = typeCode
}

// AddFlight 记录一条航班历史
func (a *Aircraft) AddFlight(flight *Flight) {
	a.Flights = append(a.Flights, flight)
}

// OrderedFlights 返回可用于配对分析的航班,按时间升序排列
// 过滤掉机场或实际起降时间都缺失的航班
func (a *Aircraft) OrderedFlights() []*Flight {
	valid := make([]*Flight, 0, len(a.Flights))
	for _, flight := range a.Flights {
		if flight.IsExtractable() {
			valid = append(valid, flight)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].sortKey().Before(valid[j].sortKey())
	})
	return valid
}

// GetAttribute 实现AttributeSource接口
func (a *Aircraft) GetAttribute(attribute string) string {
	switch attribute {
	case HeaderRegistration:
		return a.Registration
	case HeaderTypeName:
		return a.TypeName
	case HeaderTypeCode:
		return a.TypeCode
	}
	return ""
}

// Airline 航空公司
type Airline struct {
	Name string `json:"name"` // 航司名称
	Link string `json:"link"` // 航司页面相对链接

	Aircraft []*Aircraft `json:"aircraft"` // 机队
}

// NewAirline 创建航司实例
func NewAirline(name, link string) *Airline {
	return &Airline{
		Name:     name,
		Link:     link,
		Aircraft: make([]*Aircraft, 0),
	}
}

// AddAircraft 向机队中添加一架飞机
func (al *Airline) AddAircraft(aircraft *Aircraft) {
	al.Aircraft = append(al.Aircraft, aircraft)
}

// GetAttribute 实现AttributeSource接口
func (al *Airline) GetAttribute(attribute string) string {
	if attribute == HeaderAirline {
		return al.Name
	}
	return ""
}

// TurnaroundRecord 同一架飞机在同一机场的一进一出两段航班
// 进港航班的实际降落与出港航班的实际起飞之间的间隔即为地面停留时间
type TurnaroundRecord struct {
	Incoming *Flight `json:"incoming"` // 进港航班 (已降落)
	Outgoing *Flight `json:"outgoing"` // 出港航班 (已起飞)
}

// GroundTime 地面停留时长
func (r *TurnaroundRecord) GroundTime() time.Duration {
	return r.Outgoing.ActualDeparture.Sub(*r.Incoming.ActualArrival)
}

// formatGroundTime 格式化地面停留时间为 小时:分:秒 (天数折算进小时,不补零)
func formatGroundTime(d time.Duration) string {
	total := int64(d.Seconds())
	return fmt.Sprintf("%d:%d:%d", total/3600, (total/60)%60, total%60)
}

// GetAttribute 实现AttributeSource接口
func (r *TurnaroundRecord) GetAttribute(attribute string) string {
	switch attribute {
	case HeaderAirportName:
		return r.Incoming.Destination.Name
	case HeaderAirportCode:
		return r.Incoming.Destination.Code
	case HeaderDate:
		return r.Incoming.ActualArrival.Format("02 Jan 2006")
	case HeaderGroundTime:
		return formatGroundTime(r.GroundTime())
	case HeaderFromFlight:
		return r.Incoming.Name
	case HeaderFromAirport:
		if r.Incoming.Source != nil {
			return r.Incoming.Source.Name
		}
		return UnknownAirport
	case HeaderFromAirportCode:
		if r.Incoming.Source != nil {
			return r.Incoming.Source.Code
		}
		return UnknownAirport
	case HeaderArrivalTime:
		return r.Incoming.ActualArrival.Format("15:04")
	case HeaderToFlight:
		return r.Outgoing.Name
	case HeaderToAirport:
		if r.Outgoing.Destination != nil {
			return r.Outgoing.Destination.Name
		}
		return UnknownAirport
	case HeaderToAirportCode:
		if r.Outgoing.Destination != nil {
			return r.Outgoing.Destination.Code
		}
		return UnknownAirport
	case HeaderDepartureTime:
		return r.Outgoing.ActualDeparture.Format("15:04")
	}
	return ""
}
