package scrapers

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

// BotProtectionMarker 反爬虫验证页面的特征文本
const BotProtectionMarker = "Checking your browser before accessing"

// 航班表每行中各列的位置
const (
	cellSourceAirport      = 3  // 出发机场
	cellDestinationAirport = 4  // 到达机场
	cellFlightName         = 5  // 航班号
	cellFlightTime         = 6  // 计划飞行时长
	cellScheduledDeparture = 7  // 计划起飞时间戳
	cellActualDeparture    = 8  // 实际起飞时间戳
	cellScheduledArrival   = 9  // 计划降落时间戳
	cellActualArrival      = 11 // 实际降落时间戳 (仅已降落航班有效)
)

// landedPrefix 实际降落列仅在data-prefix为此值时才包含有效时间戳
// 注意末尾空格是页面原样
const landedPrefix = "Landed "

// IsBotProtected 检测页面是否为反爬虫验证页
func IsBotProtected(html string) bool {
	return strings.Contains(html, BotProtectionMarker)
}

// PageParser 页面解析器
// 职责: 把航司列表/机队列表/飞机详情页面的HTML解析成数据模型
// 所有方法只读DOM,可被多个worker并发调用
type PageParser struct {
	// 全局共享的机场数据库,解析时按ICAO代码去重
	airports *models.AirportDB
}

// NewPageParser 创建页面解析器
func NewPageParser(airports *models.AirportDB) *PageParser {
	return &PageParser{
		airports: airports,
	}
}

// ParseDocument 把HTML字符串解析为goquery文档
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}
	return doc, nil
}

// ParseAirlines 解析航司列表页面
// 页面结构: 每个航司占一个 td.notranslate,内含 <a href>航司名</a>
func (p *PageParser) ParseAirlines(doc *goquery.Document) ([]*models.Airline, error) {
	airlines := make([]*models.Airline, 0)

	doc.Find("td.notranslate").Each(func(_ int, cell *goquery.Selection) {
		anchor := cell.Find("a").First()
		if anchor.Length() == 0 {
			return
		}

		name := utils.CleanString(anchor.Text())
		link, exists := anchor.Attr("href")
		if name == "" || !exists || link == "" {
			return
		}

		airlines = append(airlines, models.NewAirline(name, link))
	})

	if len(airlines) == 0 {
		return nil, fmt.Errorf("航司列表页面中未找到任何航司")
	}

	return airlines, nil
}

// ParseFleet 解析航司机队页面,把找到的飞机添加到airline
// 页面结构: 每架飞机一个 <a class="regLinks" href>注册号</a>
func (p *PageParser) ParseFleet(doc *goquery.Document, airline *models.Airline) error {
	doc.Find("a.regLinks").Each(func(_ int, anchor *goquery.Selection) {
		registration := utils.CleanString(anchor.Text())
		link, exists := anchor.Attr("href")
		if registration == "" || !exists || link == "" {
			return
		}

		airline.AddAircraft(models.NewAircraft(registration, link))
	})

	return nil
}

// ParseAircraftPage 解析飞机详情页面,填充机型信息和航班历史
// 机型信息位于label旁的 span.details;航班历史在 tr.data-row 表格行中
func (p *PageParser) ParseAircraftPage(doc *goquery.Document, aircraft *models.Aircraft) error {
	typeName := p.findLabeledDetail(doc, "AIRCRAFT")
	typeCode := p.findLabeledDetail(doc, "TYPE CODE")
	aircraft.AddDetails(typeName, typeCode)

	doc.Find("tr.data-row").Each(func(idx int, row *goquery.Selection) {
		flight, err := p.parseFlightRow(row)
		if err != nil {
			// 单行解析失败不中断整个页面,记录后跳过
			utils.Warnf("解析航班行失败 [%s 第%d行]: %v", aircraft.Registration, idx, err)
			return
		}
		aircraft.AddFlight(flight)
	})

	return nil
}

// findLabeledDetail 查找文本等于labelText的label,返回其父节点下span.details的文本
func (p *PageParser) findLabeledDetail(doc *goquery.Document, labelText string) string {
	var result string

	doc.Find("label").EachWithBreak(func(_ int, label *goquery.Selection) bool {
		if strings.TrimSpace(label.Text()) != labelText {
			return true
		}

		detail := label.Parent().Find("span.details").First()
		if detail.Length() == 0 {
			return true
		}

		result = utils.CleanString(detail.Text())
		return false
	})

	return result
}

// parseFlightRow 解析航班表的单行数据
func (p *PageParser) parseFlightRow(row *goquery.Selection) (*models.Flight, error) {
	cells := row.Find("td")
	if cells.Length() <= cellActualArrival {
		return nil, fmt.Errorf("航班行列数不足: %d", cells.Length())
	}

	source := p.parseAirportCell(cells.Eq(cellSourceAirport))
	destination := p.parseAirportCell(cells.Eq(cellDestinationAirport))

	// 航班号: 优先取链接文本,无链接时取单元格文本
	nameCell := cells.Eq(cellFlightName)
	var name string
	if anchor := nameCell.Find("a").First(); anchor.Length() > 0 {
		name = utils.CleanString(anchor.Text())
	} else {
		name = utils.CleanString(nameCell.Text())
	}

	flightTime, err := utils.ParseClockDelta(utils.CleanString(cells.Eq(cellFlightTime).Text()))
	if err != nil {
		return nil, fmt.Errorf("解析飞行时长失败: %w", err)
	}

	scheduledDeparture, err := p.parseTimestampCell(cells.Eq(cellScheduledDeparture))
	if err != nil {
		return nil, fmt.Errorf("解析计划起飞时间失败: %w", err)
	}
	actualDeparture, err := p.parseTimestampCell(cells.Eq(cellActualDeparture))
	if err != nil {
		return nil, fmt.Errorf("解析实际起飞时间失败: %w", err)
	}
	scheduledArrival, err := p.parseTimestampCell(cells.Eq(cellScheduledArrival))
	if err != nil {
		return nil, fmt.Errorf("解析计划降落时间失败: %w", err)
	}

	// 实际降落时间只有已降落的航班才有效,在途或取消的航班此列是预测值
	var actualArrival *time.Time
	arrivalCell := cells.Eq(cellActualArrival)
	if prefix, _ := arrivalCell.Attr("data-prefix"); prefix == landedPrefix {
		actualArrival, err = p.parseTimestampCell(arrivalCell)
		if err != nil {
			return nil, fmt.Errorf("解析实际降落时间失败: %w", err)
		}
	}

	return &models.Flight{
		Name:               name,
		Source:             source,
		Destination:        destination,
		FlightTime:         flightTime,
		ScheduledDeparture: scheduledDeparture,
		ActualDeparture:    actualDeparture,
		ScheduledArrival:   scheduledArrival,
		ActualArrival:      actualArrival,
	}, nil
}

// parseAirportCell 解析机场单元格
// 链接文本为ICAO代码,td的title属性第一个逗号前为机场名称; 无链接表示机场未知
func (p *PageParser) parseAirportCell(cell *goquery.Selection) *models.Airport {
	anchor := cell.Find("a").First()
	if anchor.Length() == 0 {
		return nil
	}

	code := utils.CleanString(anchor.Text())
	if code == "" {
		return nil
	}

	title, _ := cell.Attr("title")
	name := utils.CleanString(strings.SplitN(title, ",", 2)[0])

	return p.airports.GetOrInsert(code, name)
}

// parseTimestampCell 解析带data-timestamp属性的时间单元格
func (p *PageParser) parseTimestampCell(cell *goquery.Selection) (*time.Time, error) {
	value, _ := cell.Attr("data-timestamp")
	return utils.ParseTimestamp(value)
}
