// Package export 提供过站记录的多格式导出功能
//
// 支持xlsx/csv/json三种格式,所有格式共享相同的16列结构,
// 列顺序与models.ExportHeaders保持一致。
package export

import (
	"fmt"

	"github.com/SkyAshes/fleetradar/internal/models"
)

// Row 导出文件中的一行过站记录
// csv标签决定CSV列名,json标签决定JSON字段名,两者与xlsx表头一致
type Row struct {
	AirportName     string `csv:"AIRPORT NAME" json:"AIRPORT NAME"`
	AirportCode     string `csv:"ICAO AIRPORT CODE" json:"ICAO AIRPORT CODE"`
	Airline         string `csv:"AIRLINE" json:"AIRLINE"`
	TypeName        string `csv:"TYPE NAME" json:"TYPE NAME"`
	TypeCode        string `csv:"TYPE CODE" json:"TYPE CODE"`
	Registration    string `csv:"REGISTRATION" json:"REGISTRATION"`
	Date            string `csv:"DATE" json:"DATE"`
	GroundTime      string `csv:"GROUND TIME" json:"GROUND TIME"`
	FromFlight      string `csv:"FROM FLIGHT" json:"FROM FLIGHT"`
	FromAirport     string `csv:"FROM AIRPORT" json:"FROM AIRPORT"`
	FromAirportCode string `csv:"FROM AIRPORT CODE" json:"FROM AIRPORT CODE"`
	ArrivalTime     string `csv:"ARRIVAL TIME" json:"ARRIVAL TIME"`
	ToFlight        string `csv:"TO FLIGHT" json:"TO FLIGHT"`
	ToAirport       string `csv:"TO AIRPORT" json:"TO AIRPORT"`
	ToAirportCode   string `csv:"TO AIRPORT CODE" json:"TO AIRPORT CODE"`
	DepartureTime   string `csv:"DEPARTURE TIME" json:"DEPARTURE TIME"`
}

// NewRow 从列名->值的映射构建导出行
func NewRow(info map[string]string) Row {
	return Row{
		AirportName:     info[models.HeaderAirportName],
		AirportCode:     info[models.HeaderAirportCode],
		Airline:         info[models.HeaderAirline],
		TypeName:        info[models.HeaderTypeName],
		TypeCode:        info[models.HeaderTypeCode],
		Registration:    info[models.HeaderRegistration],
		Date:            info[models.HeaderDate],
		GroundTime:      info[models.HeaderGroundTime],
		FromFlight:      info[models.HeaderFromFlight],
		FromAirport:     info[models.HeaderFromAirport],
		FromAirportCode: info[models.HeaderFromAirportCode],
		ArrivalTime:     info[models.HeaderArrivalTime],
		ToFlight:        info[models.HeaderToFlight],
		ToAirport:       info[models.HeaderToAirport],
		ToAirportCode:   info[models.HeaderToAirportCode],
		DepartureTime:   info[models.HeaderDepartureTime],
	}
}

// Values 按表头顺序返回该行的16个值
func (r Row) Values() []string {
	return []string{
		r.AirportName, r.AirportCode, r.Airline, r.TypeName,
		r.TypeCode, r.Registration, r.Date, r.GroundTime,
		r.FromFlight, r.FromAirport, r.FromAirportCode,
		r.ArrivalTime, r.ToFlight, r.ToAirport,
		r.ToAirportCode, r.DepartureTime,
	}
}

// Exporter 过站记录导出器
type Exporter interface {
	// Export 导出记录到指定文件 (filename不含扩展名,由导出器追加)
	Export(rows []Row, filename string) (string, error)
}

// NewExporter 按格式创建导出器
func NewExporter(format models.ExportFormat) (Exporter, error) {
	switch format {
	case models.FormatXLSX:
		return NewXLSXExporter(), nil
	case models.FormatCSV:
		return NewCSVExporter(), nil
	case models.FormatJSON:
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("不支持的导出格式: %s", format)
	}
}
