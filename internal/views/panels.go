package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type HomeData struct {
	Clock        string
	DateLine     string
	HasCurrent   bool
	ScheduleName string
	TaskName     string
	TimeRange    string
}

func RenderHome(data HomeData) string {
	var b strings.Builder
	b.WriteString(clockStyle.Render(data.Clock))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(data.DateLine))
	b.WriteString("\n\n")
	b.WriteString("Current Task\n")
	if !data.HasCurrent {
		b.WriteString(dimStyle.Render("No ongoing task now."))
		return b.String()
	}
	card := fmt.Sprintf("%s\n%s\n%s", dimStyle.Render(data.ScheduleName), data.TaskName, dimStyle.Render(data.TimeRange))
	b.WriteString(panelStyle.Render(card))
	return b.String()
}

type WeekDayData struct {
	Letter    string
	DayNumber int
	Selected  bool
	IsToday   bool
}

type SpanData struct {
	Name      string
	TimeRange string
	TaskCount int
}

type WeekData struct {
	Days     []WeekDayData
	DayTitle string
	Spans    []SpanData
}

func RenderWeek(data WeekData) string {
	var b strings.Builder
	b.WriteString(renderDayRow(data.Days))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(data.DayTitle))
	b.WriteString("\n")
	if len(data.Spans) == 0 {
		b.WriteString(dimStyle.Render("No schedules for this day."))
		return b.String()
	}
	for _, span := range data.Spans {
		line := fmt.Sprintf("%s  %s", span.Name, dimStyle.Render(span.TimeRange))
		if span.TaskCount == 1 {
			line += dimStyle.Render("  (1 task)")
		} else {
			line += dimStyle.Render(fmt.Sprintf("  (%d tasks)", span.TaskCount))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDayRow(days []WeekDayData) string {
	boxes := make([]string, 0, len(days))
	for _, day := range days {
		label := fmt.Sprintf("%s\n%2d", day.Letter, day.DayNumber)
		switch {
		case day.Selected:
			boxes = append(boxes, selectedStyle.Padding(0, 1).Render(label))
		case day.IsToday:
			boxes = append(boxes, headerStyle.Padding(0, 1).Render(label))
		default:
			boxes = append(boxes, lipgloss.NewStyle().Padding(0, 1).Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

type ScheduleItemData struct {
	Name     string
	Detail   string
	Selected bool
}

type SchedulesData struct {
	Items []ScheduleItemData
}

func RenderSchedules(data SchedulesData) string {
	if len(data.Items) == 0 {
		return dimStyle.Render("No schedules created yet.  (a to add)")
	}
	var b strings.Builder
	for _, item := range data.Items {
		cursor := "  "
		name := item.Name
		if item.Selected {
			cursor = "> "
			name = selectedStyle.Render(" " + item.Name + " ")
		}
		b.WriteString(cursor + name + "  " + dimStyle.Render(item.Detail) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type TaskRowData struct {
	Name      string
	TimeRange string
	Selected  bool
}

type ScheduleFormData struct {
	Title       string
	NameInput   string
	Days        []WeekDayData
	DaysFocused bool
	DayCursor   int
	RepeatOnce  bool
	Tasks       []TaskRowData
	FocusHint   string
}

func RenderScheduleForm(data ScheduleFormData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title))
	b.WriteString("\n\n")
	b.WriteString(data.NameInput)
	b.WriteString("\n\n")

	b.WriteString(renderPickRow(data.Days, data.DaysFocused, data.DayCursor))
	b.WriteString("\n\n")

	once := "This Week Only"
	forever := "Loop Forever"
	if data.RepeatOnce {
		b.WriteString(selectedStyle.Render(" "+once+" ") + "  " + forever)
	} else {
		b.WriteString(once + "  " + selectedStyle.Render(" "+forever+" "))
	}
	b.WriteString("\n\n")

	b.WriteString("Tasks\n")
	if len(data.Tasks) == 0 {
		b.WriteString(dimStyle.Render("No tasks added yet.  (n to add)"))
	} else {
		for _, task := range data.Tasks {
			cursor := "  "
			if task.Selected {
				cursor = "> "
			}
			b.WriteString(cursor + task.Name + "  " + dimStyle.Render(task.TimeRange) + "\n")
		}
	}
	if data.FocusHint != "" {
		b.WriteString("\n" + dimStyle.Render(data.FocusHint))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPickRow(days []WeekDayData, focused bool, cursor int) string {
	boxes := make([]string, 0, len(days))
	for i, day := range days {
		label := fmt.Sprintf("%s\n%2d", day.Letter, day.DayNumber)
		style := lipgloss.NewStyle().Padding(0, 1)
		if day.Selected {
			style = selectedStyle.Padding(0, 1)
		}
		if focused && i == cursor {
			style = style.Underline(true)
		}
		boxes = append(boxes, style.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

type TaskFormData struct {
	Title      string
	NameInput  string
	StartInput string
	EndInput   string
	ErrorText  string
}

func RenderTaskForm(data TaskFormData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title))
	b.WriteString("\n\n")
	b.WriteString("Name:  " + data.NameInput + "\n")
	b.WriteString("Start: " + data.StartInput + "\n")
	b.WriteString("End:   " + data.EndInput + "\n")
	if data.ErrorText != "" {
		b.WriteString("\n" + errorStyle.Render(data.ErrorText))
	}
	b.WriteString("\n" + dimStyle.Render("tab: next field | enter: save | esc: cancel"))
	return b.String()
}

type AlarmData struct {
	TaskName    string
	SecondsLeft int
}

func RenderAlarm(data AlarmData) string {
	name := data.TaskName
	if name == "" {
		name = "Your next task!"
	}
	body := fmt.Sprintf("Time for:\n\n%s\n\ndismisses in %ds  (enter to dismiss)", name, data.SecondsLeft)
	return alarmStyle.Render(body)
}
