package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"schedd/internal/alarm"
	"schedd/internal/config"
	"schedd/internal/model"
	"schedd/internal/storage"
)

type View string

const (
	ViewHome         View = "Home"
	ViewWeek         View = "Week"
	ViewSchedules    View = "Schedules"
	ViewScheduleForm View = "ScheduleForm"
	ViewTaskForm     View = "TaskForm"
	ViewAlarm        View = "Alarm"
)

type StatusBar struct {
	Text    string
	IsError bool
}

// scheduleFormFocus enumerates the focusable regions of the schedule form.
type scheduleFormFocus int

const (
	focusName scheduleFormFocus = iota
	focusDays
	focusRepeat
	focusTasks
)

type ScheduleFormState struct {
	ScheduleID string
	NameInput  textinput.Model
	Week       [7]model.Date
	Selected   map[model.Date]bool
	// Retained holds picked dates outside the displayed week that the
	// form must not drop on save.
	Retained []model.Date
	Repeat   model.RepeatMode
	Focus      scheduleFormFocus
	DayCursor  int
	TaskCursor int
	Tasks      []model.Task
}

type taskFormField int

const (
	fieldTaskName taskFormField = iota
	fieldTaskStart
	fieldTaskEnd
)

type TaskFormState struct {
	TaskID     string
	ScheduleID string
	NameInput  textinput.Model
	StartInput textinput.Model
	EndInput   textinput.Model
	Focus      taskFormField
	ErrorText  string
}

type AlarmState struct {
	Event alarm.Event
	Until time.Time
}

// Model is the single bubbletea model for the whole app. The UI is the
// sole writer of the record store, one action at a time.
type Model struct {
	store  *storage.Store
	alarms *alarm.Scheduler
	engine *alarm.Engine
	player alarm.Player
	cfg    *config.Config

	CurrentView View
	Now         time.Time
	Status      StatusBar

	// Collections are reloaded on every view switch and after every
	// mutation; between those points the clock tick only re-derives.
	Schedules []model.Schedule
	Tasks     []model.Task

	WeekCursor int
	ListCursor int

	Form     ScheduleFormState
	TaskForm TaskFormState
	Alarm    AlarmState

	HelpVisible      bool
	PermissionWarned bool
	Quitting         bool

	helpModel help.Model
}

type TickMsg time.Time

type AlarmFiredMsg struct {
	Event alarm.Event
}

func NewModel(store *storage.Store, alarms *alarm.Scheduler, engine *alarm.Engine, player alarm.Player, cfg *config.Config) Model {
	if player == nil {
		player = alarm.NoopPlayer{}
	}
	m := Model{
		store:       store,
		alarms:      alarms,
		engine:      engine,
		player:      player,
		cfg:         cfg,
		CurrentView: ViewHome,
		Now:         time.Now(),
		helpModel:   help.New(),
	}
	m.reload()
	return m
}

func (m *Model) reload() {
	ctx := storeContext()
	m.Schedules = m.store.Schedules(ctx)
	m.Tasks = m.store.Tasks(ctx)
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if m.engine != nil {
		cmds = append(cmds, waitForAlarmCmd(m.engine.C()))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForAlarmCmd(ch <-chan alarm.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return AlarmFiredMsg{Event: ev}
	}
}

func (m Model) alarmTimeout() time.Duration {
	if m.cfg != nil && m.cfg.AlarmTimeoutSeconds > 0 {
		return time.Duration(m.cfg.AlarmTimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}

func newTextInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 32
	return in
}

type keyMap struct {
	Home      key.Binding
	Week      key.Binding
	Schedules key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Home:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "home")),
	Week:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "week")),
	Schedules: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "schedules")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Home, k.Week, k.Schedules, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
