package main

import (
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/milk9111/bubbleedit/scene"
)

// SuggestionPanel holds the script-line list plus the inspector inputs
// for the selected bubble.
type SuggestionPanel struct {
	Container *widget.Container

	list    *widget.List
	entries []any

	TextInput    *widget.TextInput
	SpeakerInput *widget.TextInput

	// suppressEvents guards programmatic list/input updates from being
	// interpreted as user edits.
	suppressEvents bool
}

// SetLines repopulates the suggestion list.
func (sp *SuggestionPanel) SetLines(lines []scene.Line) {
	if sp == nil || sp.list == nil {
		return
	}
	sp.suppressEvents = true
	entries := make([]any, len(lines))
	for i, ln := range lines {
		entries[i] = ln
	}
	sp.entries = entries
	sp.list.SetEntries(entries)
	sp.suppressEvents = false
}

// SetInspector mirrors the selected bubble's text and speaker into the
// inputs without firing change handlers.
func (sp *SuggestionPanel) SetInspector(text, speaker string) {
	if sp == nil {
		return
	}
	sp.suppressEvents = true
	if sp.TextInput != nil && sp.TextInput.GetText() != text {
		sp.TextInput.SetText(text)
	}
	if sp.SpeakerInput != nil && sp.SpeakerInput.GetText() != speaker {
		sp.SpeakerInput.SetText(speaker)
	}
	sp.suppressEvents = false
}

func buildSuggestionPanel(
	theme *widget.Theme,
	fontFace *text.Face,
	onLineSelected func(line scene.Line),
	onTextChanged func(text string),
	onSpeakerChanged func(speaker string),
	onSave func(),
	onExport func(),
) *SuggestionPanel {
	sp := &SuggestionPanel{}

	panel := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(260, 0),
		),
		widget.ContainerOpts.BackgroundImage(theme.PanelTheme.BackgroundImage),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionVertical),
				widget.RowLayoutOpts.Spacing(8),
				widget.RowLayoutOpts.Padding(&widget.Insets{Top: 8, Left: 8, Right: 8, Bottom: 8}),
			),
		),
	)
	sp.Container = panel

	panel.AddChild(widget.NewLabel(
		widget.LabelOpts.Text("Script lines", fontFace, &widget.LabelColor{Idle: color.White, Disabled: color.Gray{Y: 140}}),
	))

	lineList := widget.NewList(
		widget.ListOpts.Entries([]any{}),
		widget.ListOpts.EntryLabelFunc(func(e any) string {
			if ln, ok := e.(scene.Line); ok {
				if ln.Speaker != "" {
					return fmt.Sprintf("[%d] %s: %s", ln.PanelID, ln.Speaker, ln.Text)
				}
				return fmt.Sprintf("[%d] %s", ln.PanelID, ln.Text)
			}
			return ""
		}),
		widget.ListOpts.EntrySelectedHandler(func(args *widget.ListEntrySelectedEventArgs) {
			if sp.suppressEvents {
				return
			}
			if ln, ok := args.Entry.(scene.Line); ok && onLineSelected != nil {
				onLineSelected(ln)
			}
		}),
	)
	panel.AddChild(lineList)
	sp.list = lineList

	makeField := func(label string, onChange func(text string)) *widget.TextInput {
		panel.AddChild(widget.NewLabel(
			widget.LabelOpts.Text(label, fontFace, &widget.LabelColor{Idle: color.White, Disabled: color.Gray{Y: 140}}),
		))
		input := widget.NewTextInput(
			widget.TextInputOpts.WidgetOpts(widget.WidgetOpts.MinSize(240, 28)),
			widget.TextInputOpts.Image(&widget.TextInputImage{
				Idle:     solidNineSlice(color.RGBA{245, 245, 245, 255}),
				Disabled: solidNineSlice(color.RGBA{200, 200, 200, 255}),
			}),
			widget.TextInputOpts.Color(&widget.TextInputColor{Idle: color.Black, Disabled: color.Gray{Y: 120}, Caret: color.Black}),
			widget.TextInputOpts.Face(fontFace),
			widget.TextInputOpts.ChangedHandler(func(args *widget.TextInputChangedEventArgs) {
				if sp.suppressEvents {
					return
				}
				if onChange != nil {
					onChange(args.InputText)
				}
			}),
		)
		panel.AddChild(input)
		return input
	}

	sp.TextInput = makeField("Text", onTextChanged)
	sp.SpeakerInput = makeField("Speaker", onSpeakerChanged)

	buttonsRow := widget.NewContainer(
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(6),
			),
		),
	)
	saveBtn := widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text("Save", fontFace, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if onSave != nil {
				onSave()
			}
		}),
	)
	exportBtn := widget.NewButton(
		widget.ButtonOpts.Image(theme.ButtonTheme.Image),
		widget.ButtonOpts.Text("Export PNG", fontFace, theme.ButtonTheme.TextColor),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if onExport != nil {
				onExport()
			}
		}),
	)
	buttonsRow.AddChild(saveBtn)
	buttonsRow.AddChild(exportBtn)
	panel.AddChild(buttonsRow)

	return sp
}
