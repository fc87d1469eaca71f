package core

import (
	"testing"
	"time"

	"github.com/SkyAshes/fleetradar/internal/models"
)

var (
	athens    = &models.Airport{Code: "LGAV", Name: "Athens International Airport"}
	frankfurt = &models.Airport{Code: "EDDF", Name: "Frankfurt Airport"}
	larnaca   = &models.Airport{Code: "LCLK", Name: "Larnaca International Airport"}
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestPairFlights(t *testing.T) {
	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	// 法兰克福→雅典 (已降落), 雅典→拉纳卡 (已起飞)
	incoming := &models.Flight{
		Name:          "A3 801",
		Source:        frankfurt,
		Destination:   athens,
		ActualArrival: timePtr(base.Add(3 * time.Hour)),
	}
	outgoing := &models.Flight{
		Name:            "A3 910",
		Source:          athens,
		Destination:     larnaca,
		ActualDeparture: timePtr(base.Add(5 * time.Hour)),
	}

	records := PairFlights([]*models.Flight{incoming, outgoing})

	if len(records) != 1 {
		t.Fatalf("PairFlights() 返回%d条记录, want 1", len(records))
	}
	if records[0].Incoming != incoming {
		t.Error("进港航班配对错误")
	}
	if records[0].Outgoing != outgoing {
		t.Error("出港航班配对错误")
	}
	if got := records[0].GroundTime(); got != 2*time.Hour {
		t.Errorf("GroundTime() = %v, want 2h", got)
	}
}

func TestPairFlights_WalkBack(t *testing.T) {
	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	// 中间夹着一段目的地不匹配的航班,应回溯到更早的进港航班
	flights := []*models.Flight{
		{
			Name:          "A3 801",
			Source:        frankfurt,
			Destination:   athens,
			ActualArrival: timePtr(base),
		},
		{
			Name:            "A3 700",
			Source:          larnaca,
			Destination:     frankfurt,
			ActualDeparture: timePtr(base.Add(1 * time.Hour)),
			ActualArrival:   timePtr(base.Add(3 * time.Hour)),
		},
		{
			Name:            "A3 910",
			Source:          athens,
			Destination:     larnaca,
			ActualDeparture: timePtr(base.Add(6 * time.Hour)),
		},
	}

	records := PairFlights(flights)

	// A3 700 与 A3 910 无法配对(目的地FRA≠出发ATH),
	// A3 910 回溯到 A3 801; A3 700 自身与 A3 801 也无法配对
	if len(records) != 1 {
		t.Fatalf("PairFlights() 返回%d条记录, want 1", len(records))
	}
	if records[0].Incoming.Name != "A3 801" {
		t.Errorf("Incoming.Name = %v, want A3 801", records[0].Incoming.Name)
	}
	if records[0].Outgoing.Name != "A3 910" {
		t.Errorf("Outgoing.Name = %v, want A3 910", records[0].Outgoing.Name)
	}
}

func TestPairFlights_SkipsUnlandedIncoming(t *testing.T) {
	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	// 进港航班没有实际降落时间(在途/取消),不能生成过站记录
	flights := []*models.Flight{
		{
			Name:        "A3 801",
			Source:      frankfurt,
			Destination: athens,
		},
		{
			Name:            "A3 910",
			Source:          athens,
			Destination:     larnaca,
			ActualDeparture: timePtr(base.Add(5 * time.Hour)),
		},
	}

	if records := PairFlights(flights); len(records) != 0 {
		t.Errorf("PairFlights() 返回%d条记录, want 0", len(records))
	}
}

func TestPairFlights_SkipsOutgoingWithoutDeparture(t *testing.T) {
	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	flights := []*models.Flight{
		{
			Name:          "A3 801",
			Source:        frankfurt,
			Destination:   athens,
			ActualArrival: timePtr(base),
		},
		{
			Name:        "A3 910",
			Source:      athens,
			Destination: larnaca,
			// 无实际起飞时间
		},
	}

	if records := PairFlights(flights); len(records) != 0 {
		t.Errorf("PairFlights() 返回%d条记录, want 0", len(records))
	}
}

func TestPairFlights_MultipleTurnarounds(t *testing.T) {
	base := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)

	// 典型的往返链: FRA→ATH→FRA→ATH
	flights := []*models.Flight{
		{
			Name:          "A3 801",
			Source:        frankfurt,
			Destination:   athens,
			ActualArrival: timePtr(base),
		},
		{
			Name:            "A3 802",
			Source:          athens,
			Destination:     frankfurt,
			ActualDeparture: timePtr(base.Add(2 * time.Hour)),
			ActualArrival:   timePtr(base.Add(5 * time.Hour)),
		},
		{
			Name:            "A3 803",
			Source:          frankfurt,
			Destination:     athens,
			ActualDeparture: timePtr(base.Add(7 * time.Hour)),
		},
	}

	records := PairFlights(flights)

	if len(records) != 2 {
		t.Fatalf("PairFlights() 返回%d条记录, want 2", len(records))
	}
	if records[0].Incoming.Name != "A3 801" || records[0].Outgoing.Name != "A3 802" {
		t.Errorf("第1条记录配对错误: %s → %s", records[0].Incoming.Name, records[0].Outgoing.Name)
	}
	if records[1].Incoming.Name != "A3 802" || records[1].Outgoing.Name != "A3 803" {
		t.Errorf("第2条记录配对错误: %s → %s", records[1].Incoming.Name, records[1].Outgoing.Name)
	}
}

func TestPairFlights_Empty(t *testing.T) {
	if records := PairFlights(nil); len(records) != 0 {
		t.Errorf("PairFlights(nil) 返回%d条记录, want 0", len(records))
	}
}
