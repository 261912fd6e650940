package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/cutline/cutline-agent/internal/library"
)

type Tray struct {
	libSvc library.LibraryService
	runner *library.Runner
	logger *slog.Logger

	statusItem  *systray.MenuItem
	sectorsItem *systray.MenuItem
	pauseItem   *systray.MenuItem

	mu sync.Mutex

	onAddSector func() error
	onQuit      func()
}

type TrayConfig struct {
	LibraryService library.LibraryService
	Runner         *library.Runner
	Logger         *slog.Logger
	OnAddSector    func() error
	OnQuit         func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		libSvc:      cfg.LibraryService,
		runner:      cfg.Runner,
		logger:      cfg.Logger,
		onAddSector: cfg.OnAddSector,
		onQuit:      cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutline")
	systray.SetTooltip("Cutline Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.sectorsItem = systray.AddMenuItem("Sectors: 0", "Configured sectors")
	t.sectorsItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause ingest")

	addSectorItem := systray.AddMenuItem("Add Sector...", "Add a folder as a new sector")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutline Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-addSectorItem.ClickedCh:
				t.handleAddSector()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleAddSector() {
	if t.onAddSector != nil {
		if err := t.onAddSector(); err != nil {
			t.logger.Error("failed to add sector", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateSectorsCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sectorsItem.SetTitle(fmt.Sprintf("Sectors: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
