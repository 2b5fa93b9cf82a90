package main

import (
	"bytes"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/milk9111/bubbleedit/interaction"
	"github.com/milk9111/bubbleedit/scene"
)

func BuildEditorUI(
	onToolSelected func(tool interaction.Tool),
	onLineSelected func(line scene.Line),
	onTextChanged func(text string),
	onSpeakerChanged func(speaker string),
	onSave func(),
	onExport func(),
	initialTool interaction.Tool,
) (*ebitenui.UI, *ToolBar, *SuggestionPanel) {
	ui := &ebitenui.UI{}

	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic("Failed to load font: " + err.Error())
	}

	var fontFace text.Face = &text.GoTextFace{Source: s, Size: 14}
	ui.PrimaryTheme = newEditorTheme(&fontFace)

	toolbarContainer, toolBar := buildToolBar(ui.PrimaryTheme, &fontFace, onToolSelected, initialTool)
	suggestionPanel := buildSuggestionPanel(
		ui.PrimaryTheme,
		&fontFace,
		onLineSelected,
		onTextChanged,
		onSpeakerChanged,
		onSave,
		onExport,
	)

	root := widget.NewContainer(widget.ContainerOpts.Layout(widget.NewAnchorLayout()))
	suggestionPanel.Container.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionEnd,
		VerticalPosition:   widget.AnchorLayoutPositionCenter,
		StretchVertical:    true,
	}
	toolbarContainer.GetWidget().LayoutData = widget.AnchorLayoutData{
		HorizontalPosition: widget.AnchorLayoutPositionCenter,
		VerticalPosition:   widget.AnchorLayoutPositionStart,
	}
	root.AddChild(suggestionPanel.Container)
	root.AddChild(toolbarContainer)

	ui.Container = root

	return ui, toolBar, suggestionPanel
}
