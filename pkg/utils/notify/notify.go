package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	fcolor "github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Message type constants.
// Each type determines the message styling (color and symbol).
const (
	// ErrorType represents an error message (red, with ✗ symbol).
	ErrorType MessageType = iota
	// WarningType represents a warning message (yellow, with ⚠ symbol).
	WarningType
	// ActivityType represents an activity/progress message (default color, with ► symbol).
	ActivityType
	// SuccessType represents a success message (green, with ✔ symbol).
	SuccessType
	// InfoType represents an informational message (blue, with ℹ symbol).
	InfoType
	// TitleType represents a pipeline stage header (bold, with an emoji).
	TitleType
)

// MessageType defines the type of notification message.
type MessageType int

// String returns the lowercase name used when the message is mirrored to the debug log.
func (t MessageType) String() string {
	switch t {
	case ErrorType:
		return "error"
	case WarningType:
		return "warning"
	case ActivityType:
		return "activity"
	case SuccessType:
		return "success"
	case InfoType:
		return "info"
	case TitleType:
		return "title"
	default:
		return "unknown"
	}
}

// Message represents a notification message to be displayed to the user.
type Message struct {
	// Type determines the message styling (color, symbol).
	Type MessageType
	// Content is the main message text to display.
	Content string
	// Emoji is used only for TitleType messages to customize the title icon.
	Emoji string
	// Writer is the output destination. If nil, defaults to os.Stdout.
	Writer io.Writer
	// Args are format arguments for Content if it contains format specifiers.
	Args []any
}

// WriteMessage writes a formatted message based on the message configuration.
func WriteMessage(msg Message) {
	if msg.Writer == nil {
		msg.Writer = os.Stdout
	}

	content := render(msg)
	config := getMessageConfig(msg.Type)

	if msg.Type == TitleType {
		emoji := msg.Emoji
		if emoji == "" {
			emoji = "ℹ️"
		}

		_, err := config.color.Fprintf(msg.Writer, "%s %s\n", emoji, content)
		handleNotifyError(err)

		return
	}

	_, err := config.color.Fprintf(
		msg.Writer,
		"%s%s\n",
		config.symbol,
		indentMultilineContent(content, config.symbol),
	)
	handleNotifyError(err)
}

// Notifier prints human-readable progress lines and mirrors each of them into the
// debug log, so the persistent log reads as a superset of the console.
type Notifier struct {
	out    io.Writer
	logger logrus.FieldLogger
}

// New creates a Notifier. A nil writer means os.Stdout; a nil logger disables mirroring.
func New(out io.Writer, logger logrus.FieldLogger) *Notifier {
	if out == nil {
		out = os.Stdout
	}

	return &Notifier{out: out, logger: logger}
}

// Writer returns the console writer.
func (n *Notifier) Writer() io.Writer {
	return n.out
}

// Titlef announces a pipeline stage.
func (n *Notifier) Titlef(emoji, format string, args ...any) {
	n.write(Message{Type: TitleType, Emoji: emoji, Content: format, Args: args})
}

// Activityf reports work in progress.
func (n *Notifier) Activityf(format string, args ...any) {
	n.write(Message{Type: ActivityType, Content: format, Args: args})
}

// Successf reports a completed step.
func (n *Notifier) Successf(format string, args ...any) {
	n.write(Message{Type: SuccessType, Content: format, Args: args})
}

// Infof reports a neutral fact.
func (n *Notifier) Infof(format string, args ...any) {
	n.write(Message{Type: InfoType, Content: format, Args: args})
}

// Warningf reports something the user must act on later, such as a manual cleanup.
func (n *Notifier) Warningf(format string, args ...any) {
	n.write(Message{Type: WarningType, Content: format, Args: args})
}

// Errorf reports a failure.
func (n *Notifier) Errorf(format string, args ...any) {
	n.write(Message{Type: ErrorType, Content: format, Args: args})
}

func (n *Notifier) write(msg Message) {
	msg.Writer = n.out
	WriteMessage(msg)

	if n.logger == nil {
		return
	}

	entry := n.logger.WithField("notify", msg.Type.String())

	switch msg.Type {
	case ErrorType:
		entry.Error(render(msg))
	case WarningType:
		entry.Warn(render(msg))
	case ActivityType, SuccessType, InfoType, TitleType:
		entry.Info(render(msg))
	}
}

// Convenience functions for one-off messages without a Notifier.

// Errorf writes an error message to the writer.
func Errorf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: ErrorType, Content: format, Args: args, Writer: writer})
}

// Warningf writes a warning message to the writer.
func Warningf(writer io.Writer, format string, args ...any) {
	WriteMessage(Message{Type: WarningType, Content: format, Args: args, Writer: writer})
}

type messageConfig struct {
	symbol string
	color  *fcolor.Color
}

func getMessageConfig(msgType MessageType) messageConfig {
	switch msgType {
	case ErrorType:
		return messageConfig{symbol: "✗ ", color: fcolor.New(fcolor.FgRed)}
	case WarningType:
		return messageConfig{symbol: "⚠ ", color: fcolor.New(fcolor.FgYellow, fcolor.Bold)}
	case ActivityType:
		return messageConfig{symbol: "► ", color: fcolor.New(fcolor.Reset)}
	case SuccessType:
		return messageConfig{symbol: "✔ ", color: fcolor.New(fcolor.FgGreen)}
	case InfoType:
		return messageConfig{symbol: "ℹ ", color: fcolor.New(fcolor.FgBlue)}
	case TitleType:
		return messageConfig{symbol: "", color: fcolor.New(fcolor.Reset, fcolor.Bold)}
	default:
		return messageConfig{symbol: "", color: fcolor.New(fcolor.Reset)}
	}
}

func render(msg Message) string {
	if len(msg.Args) > 0 {
		return fmt.Sprintf(msg.Content, msg.Args...)
	}

	return msg.Content
}

// handleNotifyError reports print failures on stderr instead of returning them.
func handleNotifyError(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "notify: failed to print message: %v\n", err)
	}
}

// indentMultilineContent aligns continuation lines with the text after the symbol.
func indentMultilineContent(content, symbol string) string {
	if symbol == "" || !strings.Contains(content, "\n") {
		return content
	}

	indent := strings.Repeat(" ", len([]rune(symbol)))
	lines := strings.Split(content, "\n")

	for i := 1; i < len(lines); i++ {
		if lines[i] == "" {
			continue
		}

		lines[i] = indent + lines[i]
	}

	return strings.Join(lines, "\n")
}
