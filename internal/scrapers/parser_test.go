package scrapers

import (
	"testing"
	"time"

	"github.com/SkyAshes/fleetradar/internal/models"
)

const airlinesPageHTML = `
<html><body><table>
<tr>
  <td class="notranslate"><a href="/data/airlines/aegean-airlines-a3-aee">Aegean Airlines</a></td>
  <td class="notranslate"><a href="/data/airlines/lufthansa-lh-dlh">Lufthansa</a></td>
</tr>
<tr>
  <td class="notranslate"><a href="/data/airlines/ryanair-fr-ryr">Ryanair</a></td>
  <td>不相关的单元格</td>
</tr>
</table></body></html>`

const fleetPageHTML = `
<html><body>
<a class="regLinks" href="/data/aircraft/sx-dga">SX-DGA</a>
<a class="regLinks" href="/data/aircraft/sx-dgb">SX-DGB</a>
<a href="/data/aircraft/ignored">无regLinks类,应忽略</a>
</body></html>`

// 两行航班: 第一行已降落,第二行在途(实际降落列无Landed前缀)
const aircraftPageHTML = `
<html><body>
<div><label>AIRCRAFT</label> <span class="details">Airbus A320-232</span></div>
<div><label>TYPE CODE</label> <span class="details">A320</span></div>
<table>
<tr class="data-row">
  <td>0</td><td>1</td><td>2</td>
  <td title="Frankfurt Airport, Germany"><a href="/airports/fra">FRA</a></td>
  <td title="Athens International Airport, Greece"><a href="/airports/ath">ATH</a></td>
  <td><a href="/flights/a3801">A3 801</a></td>
  <td>02:45</td>
  <td data-timestamp="1748757600">07:20</td>
  <td data-timestamp="1748758500">07:35</td>
  <td data-timestamp="1748767500">10:05</td>
  <td>10</td>
  <td data-prefix="Landed " data-timestamp="1748768400">10:20</td>
</tr>
<tr class="data-row">
  <td>0</td><td>1</td><td>2</td>
  <td title="Athens International Airport, Greece"><a href="/airports/ath">ATH</a></td>
  <td>—</td>
  <td>A3 910</td>
  <td>01:30</td>
  <td data-timestamp="1748775600">12:20</td>
  <td data-timestamp="1748776200">12:30</td>
  <td data-timestamp="1748781000">13:50</td>
  <td>10</td>
  <td data-timestamp="1748781600">14:00</td>
</tr>
</table>
</body></html>`

func TestIsBotProtected(t *testing.T) {
	if !IsBotProtected("<html>Checking your browser before accessing the site</html>") {
		t.Error("IsBotProtected() = false, want true")
	}
	if IsBotProtected("<html>正常页面</html>") {
		t.Error("IsBotProtected() = true, want false")
	}
}

func TestParseAirlines(t *testing.T) {
	doc, err := ParseDocument(airlinesPageHTML)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	parser := NewPageParser(models.NewAirportDB())
	airlines, err := parser.ParseAirlines(doc)
	if err != nil {
		t.Fatalf("ParseAirlines() error = %v", err)
	}

	if len(airlines) != 3 {
		t.Fatalf("ParseAirlines() 返回%d个航司, want 3", len(airlines))
	}

	if airlines[0].Name != "Aegean Airlines" {
		t.Errorf("airlines[0].Name = %v, want Aegean Airlines", airlines[0].Name)
	}
	if airlines[0].Link != "/data/airlines/aegean-airlines-a3-aee" {
		t.Errorf("airlines[0].Link = %v", airlines[0].Link)
	}
}

func TestParseAirlines_EmptyPage(t *testing.T) {
	doc, err := ParseDocument("<html><body>没有航司</body></html>")
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	parser := NewPageParser(models.NewAirportDB())
	if _, err := parser.ParseAirlines(doc); err == nil {
		t.Error("ParseAirlines() 对空页面应返回错误")
	}
}

func TestParseFleet(t *testing.T) {
	doc, err := ParseDocument(fleetPageHTML)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	parser := NewPageParser(models.NewAirportDB())
	airline := models.NewAirline("Aegean Airlines", "/data/airlines/aegean-airlines-a3-aee")

	if err := parser.ParseFleet(doc, airline); err != nil {
		t.Fatalf("ParseFleet() error = %v", err)
	}

	if len(airline.Aircraft) != 2 {
		t.Fatalf("ParseFleet() 添加了%d架飞机, want 2", len(airline.Aircraft))
	}

	if airline.Aircraft[0].Registration != "SX-DGA" {
		t.Errorf("Registration = %v, want SX-DGA", airline.Aircraft[0].Registration)
	}
	if airline.Aircraft[1].Link != "/data/aircraft/sx-dgb" {
		t.Errorf("Link = %v, want /data/aircraft/sx-dgb", airline.Aircraft[1].Link)
	}
}

func TestParseAircraftPage(t *testing.T) {
	doc, err := ParseDocument(aircraftPageHTML)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	airports := models.NewAirportDB()
	parser := NewPageParser(airports)
	aircraft := models.NewAircraft("SX-DGA", "/data/aircraft/sx-dga")

	if err := parser.ParseAircraftPage(doc, aircraft); err != nil {
		t.Fatalf("ParseAircraftPage() error = %v", err)
	}

	if aircraft.TypeName != "Airbus A320-232" {
		t.Errorf("TypeName = %v, want Airbus A320-232", aircraft.TypeName)
	}
	if aircraft.TypeCode != "A320" {
		t.Errorf("TypeCode = %v, want A320", aircraft.TypeCode)
	}

	if len(aircraft.Flights) != 2 {
		t.Fatalf("解析了%d条航班, want 2", len(aircraft.Flights))
	}

	// 第一行: 已降落的完整航班
	landed := aircraft.Flights[0]
	if landed.Name != "A3 801" {
		t.Errorf("Name = %v, want A3 801", landed.Name)
	}
	if landed.Source == nil || landed.Source.Code != "FRA" {
		t.Errorf("Source = %v, want FRA", landed.Source)
	}
	if landed.Source.Name != "Frankfurt Airport" {
		t.Errorf("Source.Name = %v, want Frankfurt Airport (title逗号前部分)", landed.Source.Name)
	}
	if landed.Destination == nil || landed.Destination.Code != "ATH" {
		t.Errorf("Destination = %v, want ATH", landed.Destination)
	}
	if landed.FlightTime != 2*time.Hour+45*time.Minute {
		t.Errorf("FlightTime = %v, want 2h45m", landed.FlightTime)
	}
	if landed.ActualDeparture == nil || landed.ActualDeparture.Unix() != 1748758500 {
		t.Errorf("ActualDeparture = %v, want 1748758500", landed.ActualDeparture)
	}
	if landed.ActualArrival == nil || landed.ActualArrival.Unix() != 1748768400 {
		t.Errorf("ActualArrival = %v, want 1748768400", landed.ActualArrival)
	}

	// 第二行: 在途航班,目的地未知,无Landed前缀时实际降落时间应为nil
	inflight := aircraft.Flights[1]
	if inflight.Name != "A3 910" {
		t.Errorf("Name = %v, want A3 910", inflight.Name)
	}
	if inflight.Destination != nil {
		t.Errorf("Destination = %v, want nil (无链接的机场单元格)", inflight.Destination)
	}
	if inflight.ActualArrival != nil {
		t.Errorf("ActualArrival = %v, want nil (无Landed前缀)", inflight.ActualArrival)
	}

	// 机场数据库按ICAO代码去重收录
	if airports.Len() != 2 {
		t.Errorf("机场数据库收录了%d个机场, want 2", airports.Len())
	}
	if !airports.Contains("FRA") || !airports.Contains("ATH") {
		t.Error("机场数据库缺少FRA或ATH")
	}
}

func TestParseAircraftPage_SkipsBrokenRows(t *testing.T) {
	// 列数不足的行应跳过而不中断解析
	html := `
<html><body><table>
<tr class="data-row"><td>只有一列</td></tr>
</table></body></html>`

	doc, err := ParseDocument(html)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}

	parser := NewPageParser(models.NewAirportDB())
	aircraft := models.NewAircraft("SX-DGA", "/data/aircraft/sx-dga")

	if err := parser.ParseAircraftPage(doc, aircraft); err != nil {
		t.Fatalf("ParseAircraftPage() error = %v", err)
	}
	if len(aircraft.Flights) != 0 {
		t.Errorf("解析了%d条航班, want 0", len(aircraft.Flights))
	}
}
