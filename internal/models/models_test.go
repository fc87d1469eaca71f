package models

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"有效的HTTP URL", "http://example.com", false},
		{"有效的HTTPS URL", "https://www.flightradar24.com", false},
		{"带路径的URL", "https://example.com/data/airlines", false},
		{"无效的协议", "ftp://example.com", true},
		{"无效的URL", "not a url", true},
		{"空URL", "", true},
		{"无协议", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScrapeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  ScrapeConfig
		wantErr bool
	}{
		{
			name: "有效配置",
			config: ScrapeConfig{
				Instances: 4,
				WaitTime:  3,
				Mode:      ModeAuto,
			},
			wantErr: false,
		},
		{
			name: "实例数过小",
			config: ScrapeConfig{
				Instances: 0,
				WaitTime:  3,
				Mode:      ModeAuto,
			},
			wantErr: true,
		},
		{
			name: "实例数过大",
			config: ScrapeConfig{
				Instances: 65,
				WaitTime:  3,
				Mode:      ModeAuto,
			},
			wantErr: true,
		},
		{
			name: "等待时间过大",
			config: ScrapeConfig{
				Instances: 4,
				WaitTime:  61,
				Mode:      ModeAuto,
			},
			wantErr: true,
		},
		{
			name: "飞机数上限为负",
			config: ScrapeConfig{
				Instances:   4,
				WaitTime:    3,
				Mode:        ModeAuto,
				MaxAircraft: -1,
			},
			wantErr: true,
		},
		{
			name: "无效的获取模式",
			config: ScrapeConfig{
				Instances: 4,
				WaitTime:  3,
				Mode:      FetchMode("turbo"),
			},
			wantErr: true,
		},
		{
			name: "反爬等待超时为负",
			config: ScrapeConfig{
				Instances:      4,
				WaitTime:       3,
				Mode:           ModeAuto,
				BotWaitTimeout: -1,
			},
			wantErr: true,
		},
		{
			name: "反爬等待超时过大",
			config: ScrapeConfig{
				Instances:      4,
				WaitTime:       3,
				Mode:           ModeAuto,
				BotWaitTimeout: 601,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewScrapeTask(t *testing.T) {
	config := ScrapeConfig{
		Instances: 4,
		WaitTime:  3,
		Mode:      ModeAuto,
	}

	task, err := NewScrapeTask("https://www.flightradar24.com", config)
	if err != nil {
		t.Fatalf("NewScrapeTask() error = %v", err)
	}

	if task.ID == "" {
		t.Error("任务ID不应为空")
	}

	if task.BaseURL != "https://www.flightradar24.com" {
		t.Errorf("BaseURL = %v, want %v", task.BaseURL, "https://www.flightradar24.com")
	}

	if task.Status != TaskStatusPending {
		t.Errorf("Status = %v, want %v", task.Status, TaskStatusPending)
	}
}

func TestFlight_IsExtractable(t *testing.T) {
	now := time.Now()
	airport := &Airport{Code: "EDDF", Name: "Frankfurt Airport"}

	tests := []struct {
		name   string
		flight Flight
		want   bool
	}{
		{
			name:   "有出发机场和实际起飞时间",
			flight: Flight{Source: airport, ActualDeparture: timePtr(now)},
			want:   true,
		},
		{
			name:   "有到达机场和实际降落时间",
			flight: Flight{Destination: airport, ActualArrival: timePtr(now)},
			want:   true,
		},
		{
			name:   "机场全部未知",
			flight: Flight{ActualDeparture: timePtr(now)},
			want:   false,
		},
		{
			name:   "缺少实际起降时间",
			flight: Flight{Source: airport, ScheduledDeparture: timePtr(now)},
			want:   false,
		},
		{
			name:   "空航班",
			flight: Flight{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.flight.IsExtractable(); got != tt.want {
				t.Errorf("IsExtractable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAircraft_OrderedFlights(t *testing.T) {
	airport := &Airport{Code: "LGAV", Name: "Athens International Airport"}
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	aircraft := NewAircraft("SX-DGA", "/data/aircraft/sx-dga")
	// 乱序添加: 晚、早、不可提取、中
	aircraft.AddFlight(&Flight{Name: "A3 102", Source: airport, ActualDeparture: timePtr(base.Add(10 * time.Hour))})
	aircraft.AddFlight(&Flight{Name: "A3 100", Source: airport, ActualDeparture: timePtr(base)})
	aircraft.AddFlight(&Flight{Name: "无时间", Source: airport})
	aircraft.AddFlight(&Flight{Name: "A3 101", Destination: airport, ActualArrival: timePtr(base.Add(5 * time.Hour))})

	ordered := aircraft.OrderedFlights()

	if len(ordered) != 3 {
		t.Fatalf("OrderedFlights() 返回%d条航班, want 3", len(ordered))
	}

	wantNames := []string{"A3 100", "A3 101", "A3 102"}
	for i, want := range wantNames {
		if ordered[i].Name != want {
			t.Errorf("ordered[%d].Name = %v, want %v", i, ordered[i].Name, want)
		}
	}
}

func TestTurnaroundRecord_GetAttribute(t *testing.T) {
	athens := &Airport{Code: "LGAV", Name: "Athens International Airport"}
	frankfurt := &Airport{Code: "EDDF", Name: "Frankfurt Airport"}

	arrival := time.Date(2025, 6, 1, 14, 35, 0, 0, time.UTC)
	departure := time.Date(2025, 6, 2, 16, 40, 10, 0, time.UTC)

	record := &TurnaroundRecord{
		Incoming: &Flight{
			Name:          "A3 801",
			Source:        frankfurt,
			Destination:   athens,
			ActualArrival: timePtr(arrival),
		},
		Outgoing: &Flight{
			Name:            "A3 802",
			Source:          athens,
			Destination:     frankfurt,
			ActualDeparture: timePtr(departure),
		},
	}

	tests := []struct {
		attribute string
		want      string
	}{
		{HeaderAirportName, "Athens International Airport"},
		{HeaderAirportCode, "LGAV"},
		{HeaderDate, "01 Jun 2025"},
		// 跨天停留折算进小时且不补零
		{HeaderGroundTime, "26:5:10"},
		{HeaderFromFlight, "A3 801"},
		{HeaderFromAirport, "Frankfurt Airport"},
		{HeaderFromAirportCode, "EDDF"},
		{HeaderArrivalTime, "14:35"},
		{HeaderToFlight, "A3 802"},
		{HeaderToAirport, "Frankfurt Airport"},
		{HeaderToAirportCode, "EDDF"},
		{HeaderDepartureTime, "16:40"},
		{HeaderRegistration, ""},
	}

	for _, tt := range tests {
		t.Run(tt.attribute, func(t *testing.T) {
			if got := record.GetAttribute(tt.attribute); got != tt.want {
				t.Errorf("GetAttribute(%q) = %v, want %v", tt.attribute, got, tt.want)
			}
		})
	}
}

func TestTurnaroundRecord_UnknownAirports(t *testing.T) {
	athens := &Airport{Code: "LGAV", Name: "Athens International Airport"}
	arrival := time.Date(2025, 6, 1, 14, 35, 0, 0, time.UTC)
	departure := time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC)

	// 进港航班出发机场未知,出港航班到达机场未知
	record := &TurnaroundRecord{
		Incoming: &Flight{Destination: athens, ActualArrival: timePtr(arrival)},
		Outgoing: &Flight{Source: athens, ActualDeparture: timePtr(departure)},
	}

	for _, attribute := range []string{
		HeaderFromAirport, HeaderFromAirportCode,
		HeaderToAirport, HeaderToAirportCode,
	} {
		if got := record.GetAttribute(attribute); got != UnknownAirport {
			t.Errorf("GetAttribute(%q) = %v, want %v", attribute, got, UnknownAirport)
		}
	}
}

func TestWriteInfo(t *testing.T) {
	airline := NewAirline("Aegean Airlines", "/data/airlines/aegean-airlines-a3-aee")
	aircraft := NewAircraft("SX-DGA", "/data/aircraft/sx-dga")
	aircraft.AddDetails("Airbus A320-232", "A320")

	info := make(map[string]string)
	WriteInfo(info, airline)
	WriteInfo(info, aircraft)

	if info[HeaderAirline] != "Aegean Airlines" {
		t.Errorf("info[AIRLINE] = %v, want Aegean Airlines", info[HeaderAirline])
	}
	if info[HeaderRegistration] != "SX-DGA" {
		t.Errorf("info[REGISTRATION] = %v, want SX-DGA", info[HeaderRegistration])
	}
	if info[HeaderTypeCode] != "A320" {
		t.Errorf("info[TYPE CODE] = %v, want A320", info[HeaderTypeCode])
	}

	// 空值不应覆盖已有值
	WriteInfo(info, NewAirline("", ""))
	if info[HeaderAirline] != "Aegean Airlines" {
		t.Error("空值覆盖了已有的航司名称")
	}
}

func TestCheckpoint_SaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	filepath := tempDir + "/" + CheckpointFilename("www.flightradar24.com")

	checkpoint := &Checkpoint{
		TaskID:  "test-task-123",
		BaseURL: "https://www.flightradar24.com",
		ProcessedRegistrations: []string{
			"SX-DGA",
			"SX-DGB",
		},
		FailedRegistrations: []string{"SX-DGC"},
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
		Config: ScrapeConfig{
			Instances: 4,
			WaitTime:  3,
			Mode:      ModeAuto,
		},
	}

	if err := checkpoint.SaveToFile(filepath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadCheckpointFromFile(filepath)
	if err != nil {
		t.Fatalf("LoadCheckpointFromFile() error = %v", err)
	}

	if loaded.TaskID != checkpoint.TaskID {
		t.Errorf("TaskID不匹配: got %v, want %v", loaded.TaskID, checkpoint.TaskID)
	}

	if loaded.BaseURL != checkpoint.BaseURL {
		t.Errorf("BaseURL不匹配: got %v, want %v", loaded.BaseURL, checkpoint.BaseURL)
	}

	if len(loaded.ProcessedRegistrations) != len(checkpoint.ProcessedRegistrations) {
		t.Errorf("ProcessedRegistrations长度不匹配: got %v, want %v",
			len(loaded.ProcessedRegistrations), len(checkpoint.ProcessedRegistrations))
	}

	if !loaded.IsProcessed("SX-DGA") {
		t.Error("IsProcessed(SX-DGA) = false, want true")
	}
	if loaded.IsProcessed("SX-XXX") {
		t.Error("IsProcessed(SX-XXX) = true, want false")
	}
}
