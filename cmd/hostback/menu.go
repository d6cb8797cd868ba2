package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/svartholm/hostback/internal/ledger"
	"github.com/svartholm/hostback/internal/logsink"
	"github.com/svartholm/hostback/internal/services/backup"
	"github.com/svartholm/hostback/internal/services/executor"
	"github.com/svartholm/hostback/internal/services/restore"
	"github.com/svartholm/hostback/internal/settings"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu",
	Long: `Drive backup and restore from an interactive text menu. On startup,
errors left behind by a previous run are shown and can be cleared before
any new operation starts.`,
	RunE: runMenu,
}

// menu wires the interactive session: one settings store, one ledger and
// one log sink shared by every operation started from it.
type menu struct {
	app    *tview.Application
	pages  *tview.Pages
	store  *settings.Store
	ledger *ledger.Ledger
	sink   *logsink.Sink
}

func runMenu(cmd *cobra.Command, args []string) error {
	if err := executor.CheckTools("rsync", "tar", "xz"); err != nil {
		return err
	}

	store, err := settings.Open(settingsFile)
	if err != nil {
		return err
	}

	sink := logsink.New(logFile)
	defer sink.Close()

	m := &menu{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		store:  store,
		ledger: ledger.New(ledgerFile),
		sink:   sink,
	}

	tview.Styles.BorderColor = tcell.ColorSteelBlue
	tview.Styles.TitleColor = tcell.ColorSteelBlue

	m.pages.AddPage("main", m.mainMenu(), true, true)
	if m.ledger.HasPending() {
		m.showRecovery()
	}

	return m.app.SetRoot(m.pages, true).Run()
}

func (m *menu) mainMenu() tview.Primitive {
	list := tview.NewList().
		AddItem("Run backup", "Sync, compress, verify", 'b', func() { m.runOperation("backup") }).
		AddItem("Run restore", "Extract and sync into the target", 'r', func() { m.runOperation("restore") }).
		AddItem("Settings", "Edit directories, exclusions, compression", 's', m.showSettingsForm).
		AddItem("Errors", "Review or clear pending errors", 'e', m.showErrors).
		AddItem("Quit", "", 'q', m.app.Stop)
	list.SetBorder(true).SetTitle(" hostback ").SetTitleAlign(tview.AlignCenter)
	return list
}

// runOperation suspends the TUI so live rsync/tar output stays visible on
// the terminal, then reports the outcome in a modal.
func (m *menu) runOperation(kind string) {
	var ok bool
	m.app.Suspend(func() {
		ctx, cancel := signalContext()
		defer cancel()

		switch kind {
		case "backup":
			ok = backup.New(silentLogger(), m.sink, m.store, m.ledger).Run(ctx)
		case "restore":
			ok = restore.New(silentLogger(), m.sink, m.store, m.ledger).Run(ctx)
		}
	})

	text := fmt.Sprintf("%s completed successfully", kind)
	if !ok {
		text = fmt.Sprintf("%s failed, see the error list and %s", kind, logFile)
	}
	m.showModal(text, []string{"OK"}, func(string) { m.pages.SwitchToPage("main") })
}

func (m *menu) showSettingsForm() {
	cfg, err := m.store.LoadBackupConfig()
	if err != nil {
		m.showModal(err.Error(), []string{"OK"}, func(string) { m.pages.SwitchToPage("main") })
		return
	}
	restoreCfg, _ := m.store.LoadRestoreConfig()

	form := tview.NewForm().
		AddInputField("Source directory", cfg.SourceDir, 50, nil, nil).
		AddInputField("Destination directory", cfg.BackupDir, 50, nil, nil).
		AddInputField("Exclusions (colon-separated)", strings.Join(cfg.ExcludeDirs, ":"), 50, nil, nil).
		AddInputField("Compression level (1-9)", strconv.Itoa(cfg.CompressionLevel), 3, nil, nil).
		AddCheckbox("Keep staging directory", cfg.KeepTemp, nil).
		AddInputField("Restore target", restoreCfg.RestoreDir, 50, nil, nil)

	form.AddButton("Save", func() {
		keep := "0"
		if form.GetFormItem(4).(*tview.Checkbox).IsChecked() {
			keep = "1"
		}
		fields := map[string]string{
			settings.KeySourceDir:        form.GetFormItem(0).(*tview.InputField).GetText(),
			settings.KeyBackupDir:        form.GetFormItem(1).(*tview.InputField).GetText(),
			settings.KeyExcludeDirs:      form.GetFormItem(2).(*tview.InputField).GetText(),
			settings.KeyCompressionLevel: form.GetFormItem(3).(*tview.InputField).GetText(),
			settings.KeyKeepTemp:         keep,
			settings.KeyRestoreDir:       form.GetFormItem(5).(*tview.InputField).GetText(),
		}
		for key, value := range fields {
			if err := m.store.Set(key, value); err != nil {
				m.showModal(err.Error(), []string{"OK"}, func(string) { m.pages.SwitchToPage("main") })
				return
			}
		}
		m.pages.SwitchToPage("main")
	})
	form.AddButton("Cancel", func() { m.pages.SwitchToPage("main") })
	form.SetBorder(true).SetTitle(" Settings ").SetTitleAlign(tview.AlignCenter)

	m.pages.AddAndSwitchToPage("settings", form, true)
}

func (m *menu) showErrors() {
	entries, err := m.ledger.ListPending()
	if err != nil {
		m.showModal(err.Error(), []string{"OK"}, func(string) { m.pages.SwitchToPage("main") })
		return
	}
	if len(entries) == 0 {
		m.showModal("No pending errors.", []string{"OK"}, func(string) { m.pages.SwitchToPage("main") })
		return
	}

	m.showModal(
		fmt.Sprintf("%d pending error(s):\n\n%s", len(entries), strings.Join(entries, "\n")),
		[]string{"Clear", "Back"},
		func(label string) {
			if label == "Clear" {
				if err := m.ledger.Clear(); err != nil {
					m.showModal(err.Error(), []string{"OK"}, func(string) { m.pages.SwitchToPage("main") })
					return
				}
			}
			m.pages.SwitchToPage("main")
		},
	)
}

// showRecovery surfaces errors from an interrupted prior run before the
// main menu is usable.
func (m *menu) showRecovery() {
	entries, _ := m.ledger.ListPending()
	m.showModal(
		fmt.Sprintf("The previous run left %d unresolved error(s):\n\n%s", len(entries), strings.Join(entries, "\n")),
		[]string{"Clear and continue", "Keep"},
		func(label string) {
			if label == "Clear and continue" {
				_ = m.ledger.Clear()
			}
			m.pages.SwitchToPage("main")
		},
	)
}

func (m *menu) showModal(text string, buttons []string, done func(label string)) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons(buttons).
		SetDoneFunc(func(_ int, label string) {
			m.pages.RemovePage("modal")
			done(label)
		})
	m.pages.AddPage("modal", modal, true, true)
}
