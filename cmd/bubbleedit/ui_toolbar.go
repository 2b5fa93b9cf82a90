package main

import (
	"image/color"

	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/milk9111/bubbleedit/interaction"
)

// ToolBar wraps the tool radio group so keyboard shortcuts can switch
// tools without re-triggering the changed handler.
type ToolBar struct {
	group    *widget.RadioGroup
	buttons  []*widget.Button
	suppress bool
}

// SetActive reflects a programmatic tool change in the toolbar.
func (tb *ToolBar) SetActive(tool interaction.Tool) {
	if tb == nil || tb.group == nil {
		return
	}
	idx := int(tool)
	if idx < 0 || idx >= len(tb.buttons) {
		return
	}
	tb.suppress = true
	tb.group.SetActive(tb.buttons[idx])
	tb.suppress = false
}

func buildToolBar(theme *widget.Theme, fontFace *text.Face, onToolSelected func(tool interaction.Tool), initialTool interaction.Tool) (*widget.Container, *ToolBar) {
	toolNames := []string{"Select", "Add Bubble", "Delete"}
	buttonTextColor := &widget.ButtonTextColor{
		Idle:     color.Black,
		Hover:    color.Black,
		Pressed:  color.RGBA{0, 0, 200, 255},
		Disabled: color.Gray{Y: 128},
	}

	toolbar := widget.NewContainer(
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(220, 48),
		),
		widget.ContainerOpts.Layout(
			widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(8),
			),
		),
		widget.ContainerOpts.BackgroundImage(solidNineSlice(color.RGBA{220, 220, 240, 255})),
	)

	var toolButtons []*widget.Button
	for _, name := range toolNames {
		btn := widget.NewButton(
			widget.ButtonOpts.Image(theme.ButtonTheme.Image),
			widget.ButtonOpts.Text(name, fontFace, buttonTextColor),
			widget.ButtonOpts.ToggleMode(),
			widget.ButtonOpts.WidgetOpts(
				widget.WidgetOpts.MinSize(48, 40),
			),
		)
		toolButtons = append(toolButtons, btn)
		toolbar.AddChild(btn)
	}

	elements := make([]widget.RadioGroupElement, 0, len(toolButtons))
	for _, b := range toolButtons {
		elements = append(elements, b)
	}

	tb := &ToolBar{buttons: toolButtons}
	group := widget.NewRadioGroup(
		widget.RadioGroupOpts.Elements(elements...),
		widget.RadioGroupOpts.ChangedHandler(func(args *widget.RadioGroupChangedEventArgs) {
			if tb.suppress || onToolSelected == nil {
				return
			}
			for idx, b := range toolButtons {
				if args.Active == b {
					onToolSelected(interaction.Tool(idx))
					return
				}
			}
		}),
	)
	tb.group = group

	if idx := int(initialTool); idx >= 0 && idx < len(toolButtons) {
		group.SetActive(toolButtons[idx])
	}

	return toolbar, tb
}
