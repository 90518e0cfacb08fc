package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/llehouerou/coderadio/internal/coderadio"
)

const (
	// labelWidth aligns values after "Station:".
	labelWidth = 12
	separator  = " — "
	// minBarWidth is the narrowest progress bar worth drawing.
	minBarWidth = 10
)

var (
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func field(label, value string, width int) string {
	pad := strings.Repeat(" ", max(labelWidth-len(label), 1))
	if width > 0 {
		width = max(width-labelWidth, 1)
	}
	return labelStyle.Render(label) + pad + truncate(clean(value), width)
}

// RenderMetadata renders the block printed on every song change.
// width 0 disables truncation.
func RenderMetadata(song coderadio.Song, width int) string {
	return strings.Join([]string{
		field("Song:", song.Title, width),
		field("Artist:", song.Artist, width),
		field("Album:", song.Album, width),
	}, "\n")
}

// RenderStation renders the resolved station line.
func RenderStation(r coderadio.Relay, width int) string {
	return field("Station:", r.Name, width)
}

// RenderHint renders the usage help line.
func RenderHint(hint string) string {
	return hintStyle.Render(hint)
}

// RenderStatus renders a playback status note.
func RenderStatus(status string) string {
	return statusStyle.Render(status)
}

// ProgressLine renders the live status line, e.g.
//
//	01:14 / 03:05 - listeners: 42 - volume: 5/9
//
// with em dashes as separators.
func ProgressLine(s State) string {
	return ProgressInfo(s.Elapsed, s.Duration) +
		separator + "listeners: " + humanize.Comma(s.Listeners) +
		separator + fmt.Sprintf("volume: %s/9", s.VolumeLabel())
}

// RenderProgress renders the progress line, led by a bar when the duration
// is known and the terminal is wide enough.
func RenderProgress(s State, bar progress.Model, width int) string {
	line := ProgressLine(s)
	if !s.Known() || width <= 0 {
		return line
	}
	barWidth := width - runewidth.StringWidth(line) - 2
	if barWidth < minBarWidth {
		return line
	}
	bar.Width = barWidth
	return bar.ViewAs(s.Ratio()) + "  " + line
}

func newBar() progress.Model {
	return progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
}
