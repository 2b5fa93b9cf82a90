package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"

	"github.com/ebitenui/ebitenui"
	ebuiinput "github.com/ebitenui/ebitenui/input"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/milk9111/bubbleedit/bubble"
	"github.com/milk9111/bubbleedit/config"
	"github.com/milk9111/bubbleedit/export"
	"github.com/milk9111/bubbleedit/geom"
	"github.com/milk9111/bubbleedit/interaction"
	"github.com/milk9111/bubbleedit/layer"
	"github.com/milk9111/bubbleedit/scene"
	"github.com/milk9111/bubbleedit/session"
	"github.com/milk9111/bubbleedit/suggest"
)

// saveResult carries an async save back onto the update loop.
type saveResult struct {
	revision int
	err      error
}

// App is the ebiten game for the editor. All session and store access
// happens on the update loop; saves and exports snapshot first and run in
// goroutines, reporting back over channels.
type App struct {
	cfg          *config.Config
	artifactPath string

	art     *scene.Artifact
	sess    *session.Session
	ctrl    *interaction.Controller
	canvas  *Canvas
	adapter layer.Adapter

	ui        *ebitenui.UI
	toolBar   *ToolBar
	suggPanel *SuggestionPanel

	suggestClient *suggest.Client
	watcher       *scene.Watcher

	bgImage image.Image // decoded copy kept for PNG export

	// a clicked script line waiting to be placed on the canvas
	pendingLine *scene.Line

	// uncommitted inspector edits, flushed when focus leaves the input
	pendingText    *string
	pendingSpeaker *string
	inspectorID    string

	clipboardOK bool

	saving   bool
	saveCh   chan saveResult
	exportCh chan error
	linesCh  chan []scene.Line

	stale        bool
	status       string
	statusUntil  time.Time
	lastSelected string
}

func NewApp(cfg *config.Config, artifactPath string, art *scene.Artifact, sess *session.Session, adapter layer.Adapter, bg *ebiten.Image, bgDecoded image.Image, suggestClient *suggest.Client, watcher *scene.Watcher, clipboardOK bool) *App {
	stageW, stageH := 1080, 1920
	if bg != nil {
		stageW, stageH = bg.Bounds().Dx(), bg.Bounds().Dy()
	}

	a := &App{
		cfg:           cfg,
		artifactPath:  artifactPath,
		art:           art,
		sess:          sess,
		adapter:       adapter,
		bgImage:       bgDecoded,
		suggestClient: suggestClient,
		watcher:       watcher,
		clipboardOK:   clipboardOK,
		saveCh:        make(chan saveResult, 1),
		exportCh:      make(chan error, 1),
		linesCh:       make(chan []scene.Line, 1),
	}

	if suggestClient != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			lines, err := suggestClient.Lines(ctx, sess.SceneID)
			if err != nil {
				log.Printf("fetch suggestions: %v", err)
				return
			}
			if len(lines) > 0 {
				a.linesCh <- lines
			}
		}()
	}

	a.canvas = NewCanvas(bg, stageW, stageH)
	a.ctrl = interaction.NewController(sess)
	a.ctrl.SetStage(a.canvas.Stage())

	a.ui, a.toolBar, a.suggPanel = BuildEditorUI(
		a.onToolSelected,
		a.onLineSelected,
		a.onTextChanged,
		a.onSpeakerChanged,
		a.startSave,
		a.startExport,
		interaction.ToolSelect,
	)
	a.suggPanel.SetLines(art.Suggestions)
	return a
}

func (a *App) setStatus(msg string) {
	a.status = msg
	a.statusUntil = time.Now().Add(4 * time.Second)
}

func (a *App) onToolSelected(tool interaction.Tool) {
	a.ctrl.SetTool(tool)
	a.canvas.Interrupted()
	a.pendingLine = nil
}

func (a *App) onLineSelected(line scene.Line) {
	ln := line
	a.pendingLine = &ln
	a.setStatus("click a panel to place the line")
}

func (a *App) onTextChanged(text string) {
	if a.sess.Store.Selected() == "" {
		return
	}
	t := text
	a.pendingText = &t
	a.inspectorID = a.sess.Store.Selected()
}

func (a *App) onSpeakerChanged(speaker string) {
	if a.sess.Store.Selected() == "" {
		return
	}
	s := speaker
	a.pendingSpeaker = &s
	a.inspectorID = a.sess.Store.Selected()
}

// flushInspector commits pending text/speaker edits as history commands.
// Called when focus leaves the inputs, on save, and on selection change so
// a whole typing burst lands as one undo step per field.
func (a *App) flushInspector() {
	if a.inspectorID == "" {
		return
	}
	if a.pendingText != nil {
		a.sess.EditText(a.inspectorID, *a.pendingText)
		a.pendingText = nil
	}
	if a.pendingSpeaker != nil {
		a.sess.SetSpeaker(a.inspectorID, *a.pendingSpeaker)
		a.pendingSpeaker = nil
	}
}

func (a *App) startSave() {
	if a.saving {
		return
	}
	a.flushInspector()
	a.saving = true
	rev := a.sess.Revision()
	snapshot := a.sess.Snapshot()
	sceneID := a.sess.SceneID
	adapter := a.adapter
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := adapter.Save(ctx, sceneID, snapshot)
		a.saveCh <- saveResult{revision: rev, err: err}
	}()
}

func (a *App) startExport() {
	a.flushInspector()
	outPath := filepath.Join(a.cfg.ExportDir, a.sess.SceneID+".png")
	bubbles := make([]*bubble.Bubble, 0, a.sess.Store.Len())
	for _, b := range a.sess.Store.All() {
		bubbles = append(bubbles, b.Clone())
	}
	bg := a.bgImage
	go func() {
		a.exportCh <- export.PNG(bg, bubbles, outPath)
	}()
}

// reload reopens the scene after the pipeline regenerated its artifact.
// The old session (and its history) is discarded.
func (a *App) reload() {
	art, err := scene.Load(a.artifactPath)
	if err != nil {
		a.setStatus("reload failed: " + err.Error())
		return
	}
	sess, err := session.Open(context.Background(), art.SceneID, art.Background, art.PanelIndex(), a.adapter)
	if err != nil {
		log.Printf("reload scene %s: %v", art.SceneID, err)
		a.setStatus("reload: saved layer unreadable, starting empty")
	}

	a.art = art
	a.sess = sess
	a.ctrl = interaction.NewController(sess)

	bg, decoded, err := loadBackground(art.Background)
	if err != nil {
		log.Printf("reload background: %v", err)
	}
	stageW, stageH := 1080, 1920
	if bg != nil {
		stageW, stageH = bg.Bounds().Dx(), bg.Bounds().Dy()
	}
	a.canvas = NewCanvas(bg, stageW, stageH)
	a.bgImage = decoded
	a.ctrl.SetStage(a.canvas.Stage())
	a.suggPanel.SetLines(art.Suggestions)
	a.pendingLine = nil
	a.stale = false
	a.setStatus("scene reloaded")
}

type clipPayload struct {
	Kind    bubble.Kind `json:"kind"`
	Text    string      `json:"text"`
	Speaker string      `json:"speaker"`
}

func (a *App) copySelected() {
	if !a.clipboardOK {
		return
	}
	b := a.sess.Store.Get(a.sess.Store.Selected())
	if b == nil {
		return
	}
	raw, err := json.Marshal(clipPayload{Kind: b.Kind, Text: b.Text, Speaker: b.Speaker})
	if err != nil {
		return
	}
	clipboard.Write(clipboard.FmtText, raw)
	a.setStatus("copied")
}

func (a *App) paste() {
	if !a.clipboardOK {
		return
	}
	raw := clipboard.Read(clipboard.FmtText)
	if len(raw) == 0 {
		return
	}
	var p clipPayload
	if err := json.Unmarshal(raw, &p); err != nil || !p.Kind.Valid() {
		return
	}
	mx, my := ebiten.CursorPosition()
	at := a.canvas.screenToStage(mx, my)
	if !a.canvas.inStage(at) {
		at = geom.Point{X: float64(a.canvas.StageW) / 2, Y: float64(a.canvas.StageH) / 2}
	}
	a.ctrl.Drop(p.Kind, p.Text, p.Speaker, at)
}

func (a *App) Update() error {
	// watcher and async results first so a frame never acts on stale state
	if a.watcher != nil {
		select {
		case path, ok := <-a.watcher.Events:
			if ok {
				log.Printf("artifact changed: %s", path)
				a.stale = true
			}
		case err, ok := <-a.watcher.Errors:
			if ok {
				log.Printf("watcher: %v", err)
			}
		default:
		}
	}
	select {
	case res := <-a.saveCh:
		a.saving = false
		if res.err != nil {
			log.Printf("save scene %s failed: %v", a.sess.SceneID, res.err)
			a.setStatus("save failed: " + res.err.Error())
		} else {
			a.sess.MarkSaved(res.revision)
			a.setStatus("saved")
		}
	default:
	}
	select {
	case remote := <-a.linesCh:
		// service lines supplement whatever the artifact carried
		a.suggPanel.SetLines(append(append([]scene.Line{}, a.art.Suggestions...), remote...))
	default:
	}
	select {
	case err := <-a.exportCh:
		if err != nil {
			log.Printf("export failed: %v", err)
			a.setStatus("export failed: " + err.Error())
		} else {
			a.setStatus("exported")
		}
	default:
	}

	// losing window focus finalizes any drag in flight
	if !ebiten.IsFocused() {
		a.ctrl.Interrupt()
		a.canvas.Interrupted()
	}

	a.ui.Update()

	typing := false
	if _, ok := a.ui.GetFocusedWidget().(*widget.TextInput); ok {
		typing = true
	} else {
		a.flushInspector()
	}

	if !typing {
		a.handleHotkeys()
	}

	a.canvas.Update(a.ctrl, ebuiinput.UIHovered, a.dropPending)

	// mirror the selection into the inspector
	if sel := a.sess.Store.Selected(); sel != a.lastSelected {
		a.flushInspector()
		a.lastSelected = sel
		a.inspectorID = sel
		if b := a.sess.Store.Get(sel); b != nil {
			a.suggPanel.SetInspector(b.Text, b.Speaker)
		} else {
			a.suggPanel.SetInspector("", "")
		}
	}

	return nil
}

// dropPending places the selected script line at a canvas click. Returns
// true when the click was consumed.
func (a *App) dropPending(px geom.Point) bool {
	if a.pendingLine == nil {
		return false
	}
	ln := *a.pendingLine
	a.pendingLine = nil
	kind := bubble.Kind(ln.Type)
	if !kind.Valid() {
		kind = bubble.Speech
	}
	a.ctrl.Drop(kind, ln.Text, ln.Speaker, px)
	return true
}

func (a *App) handleHotkeys() {
	ctrlHeld := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)

	if ctrlHeld && inpututil.IsKeyJustPressed(ebiten.KeyZ) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			a.sess.Redo()
		} else {
			a.sess.Undo()
		}
		return
	}
	if ctrlHeld && inpututil.IsKeyJustPressed(ebiten.KeyY) {
		a.sess.Redo()
		return
	}
	if ctrlHeld && inpututil.IsKeyJustPressed(ebiten.KeyS) {
		a.startSave()
		return
	}
	if ctrlHeld && inpututil.IsKeyJustPressed(ebiten.KeyE) {
		a.startExport()
		return
	}
	if ctrlHeld && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		a.copySelected()
		return
	}
	if ctrlHeld && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		a.paste()
		return
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyDelete) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if id := a.sess.Store.Selected(); id != "" {
			a.sess.DeleteBubble(id)
		}
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.ctrl.Interrupt()
		a.canvas.Interrupted()
		a.sess.Store.Select("")
		a.pendingLine = nil
		return
	}
	if a.stale && inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.reload()
		return
	}

	// number keys mirror the toolbar
	switch {
	case inpututil.IsKeyJustPressed(ebiten.Key1):
		a.setTool(interaction.ToolSelect)
	case inpututil.IsKeyJustPressed(ebiten.Key2):
		a.setTool(interaction.ToolAddBubble)
	case inpututil.IsKeyJustPressed(ebiten.Key3):
		a.setTool(interaction.ToolDelete)
	}
}

func (a *App) setTool(tool interaction.Tool) {
	a.ctrl.SetTool(tool)
	a.canvas.Interrupted()
	a.toolBar.SetActive(tool)
	a.pendingLine = nil
}

func (a *App) Draw(screen *ebiten.Image) {
	a.canvas.Draw(screen, a.sess)
	a.ui.Draw(screen)

	undo, redo := a.sess.History.Depths()
	line := fmt.Sprintf("%s | tool: %s | state: %s | undo: %d redo: %d",
		a.sess.SceneID, a.ctrl.Tool(), a.ctrl.State(), undo, redo)
	if n := len(a.sess.Store.Unassigned()); n > 0 {
		line += fmt.Sprintf(" | unassigned: %d", n)
	}
	if a.sess.Dirty() {
		line += " | unsaved"
	}
	if a.saving {
		line += " | saving..."
	}
	if a.stale {
		line += " | ARTIFACT CHANGED - press R to reload"
	}
	if a.status != "" && time.Now().Before(a.statusUntil) {
		line += " | " + a.status
	}
	ebitenutil.DebugPrintAt(screen, line, 4, screen.Bounds().Dy()-18)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ebiten.Monitor().Size()
}
