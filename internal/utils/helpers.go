package utils

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EmptyMarker 页面用于表示空值的占位符 (em dash)
const EmptyMarker = "—"

// CleanString 去除字符串两端的空白和一层包围括号
// 返回清理后的字符串,页面空值占位符返回空字符串
func CleanString(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") && len(trimmed) >= 2 {
		trimmed = trimmed[1 : len(trimmed)-1]
	}
	return CheckString(trimmed)
}

// CheckString 检查字符串是否为页面空值占位符
// 占位符返回空字符串,其余原样返回
func CheckString(s string) string {
	if s == EmptyMarker {
		return ""
	}
	return s
}

// ParseClockDelta 将 "HH:MM" 格式的时长字符串解析为time.Duration
// 空字符串返回0
func ParseClockDelta(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("时长格式无效: %s (应为 HH:MM)", s)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("时长小时部分无效: %w", err)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("时长分钟部分无效: %w", err)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

// ParseTimestamp 将Unix秒级时间戳字符串解析为UTC时间
// 空字符串返回nil
func ParseTimestamp(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	seconds, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("时间戳无效: %s", s)
	}
	t := time.Unix(seconds, 0).UTC()
	return &t, nil
}

// ReadAirlinesFromFile 从文件中读取航司名称列表
// 跳过空行和#注释行
func ReadAirlinesFromFile(filepath string) ([]string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("打开航司列表文件失败: %w", err)
	}
	defer file.Close()

	airlines := make([]string, 0)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// 跳过空行和注释行
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		airlines = append(airlines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取航司列表文件失败: %w", err)
	}

	if len(airlines) == 0 {
		return nil, fmt.Errorf("航司列表文件中没有有效条目")
	}

	Infof("从文件加载了 %d 个航司", len(airlines))
	return airlines, nil
}
