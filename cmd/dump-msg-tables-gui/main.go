// Package main provides the dump-msg-tables GUI viewer.
package main

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/goetzr/dump-msg-tables/internal/msgtable"
	"github.com/goetzr/dump-msg-tables/internal/pe"
)

func main() {
	myApp := app.New()
	myWindow := myApp.NewWindow("Message Table Viewer")
	myWindow.Resize(fyne.NewSize(800, 600))

	// Module path
	filePathEntry := widget.NewEntry()
	filePathEntry.SetPlaceHolder("Select a PE module...")

	// Decoded output
	dumpOutput := widget.NewMultiLineEntry()
	dumpOutput.SetPlaceHolder("Decoded messages will appear here...")
	dumpOutput.Disable()

	// Status label
	statusLabel := widget.NewLabel("Ready")

	// File picker button
	fileButton := widget.NewButton("Browse", func() {
		dialog.ShowFileOpen(func(file fyne.URIReadCloser, err error) {
			if err != nil || file == nil {
				return
			}
			defer func() { _ = file.Close() }()
			filePathEntry.SetText(file.URI().Path())
		}, myWindow)
	})

	// Dump button
	dumpButton := widget.NewButton("Dump Message Tables", func() {
		if filePathEntry.Text == "" {
			dialog.ShowError(fmt.Errorf("select a PE module first"), myWindow)
			return
		}

		statusLabel.SetText("Dumping...")
		go func() {
			result, count, err := dumpMessageTables(filePathEntry.Text)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, myWindow)
					statusLabel.SetText("Dump failed")
					return
				}
				dumpOutput.SetText(result)
				statusLabel.SetText(fmt.Sprintf("Decoded %d messages", count))
			})
		}()
	})

	// Resource summary button
	typesButton := widget.NewButton("List Resource Types", func() {
		if filePathEntry.Text == "" {
			dialog.ShowError(fmt.Errorf("select a PE module first"), myWindow)
			return
		}

		statusLabel.SetText("Reading resource directory...")
		go func() {
			result, err := summarizeResourceTypes(filePathEntry.Text)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, myWindow)
					statusLabel.SetText("Listing failed")
					return
				}
				dumpOutput.SetText(result)
				statusLabel.SetText("Listing complete")
			})
		}()
	})

	// Layout
	fileBox := container.NewBorder(nil, nil, nil, fileButton, filePathEntry)

	outputBox := container.NewVScroll(dumpOutput)

	mainContent := container.NewBorder(
		container.NewVBox(
			widget.NewLabel("PE module path:"),
			fileBox,
			widget.NewSeparator(),
			container.NewGridWithColumns(2,
				dumpButton,
				typesButton,
			),
		),
		container.NewVBox(
			widget.NewSeparator(),
			statusLabel,
		),
		nil,
		nil,
		outputBox,
	)

	myWindow.SetContent(mainContent)
	myWindow.ShowAndRun()
}

// dumpMessageTables decodes every message table in the module and renders
// the same lines the CLI prints.
func dumpMessageTables(filepath string) (string, int, error) {
	module, err := pe.Open(filepath)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = module.Close() }()

	entries, err := msgtable.Dump(module)
	if err != nil {
		return "", 0, err
	}

	var output strings.Builder
	for _, entry := range entries {
		output.WriteString(fmt.Sprintf("%8x: %s\n", entry.ID, entry.Text))
	}
	return output.String(), len(entries), nil
}

func summarizeResourceTypes(filepath string) (string, error) {
	module, err := pe.Open(filepath)
	if err != nil {
		return "", err
	}
	defer func() { _ = module.Close() }()

	types, err := module.ResourceTypes()
	if err != nil {
		return "", fmt.Errorf("enumerate resource types: %w", err)
	}

	var output strings.Builder
	output.WriteString(fmt.Sprintf("Module: %s\n", module.Path()))
	output.WriteString(fmt.Sprintf("Size: %d bytes\n", module.Size()))
	output.WriteString(fmt.Sprintf("Architecture: %s\n", module.Architecture()))
	output.WriteString(fmt.Sprintf("\nResource types (%d):\n", len(types)))
	for _, tc := range types {
		output.WriteString(fmt.Sprintf("  %s: %d resources\n", pe.TypeName(tc.Type), tc.Count))
	}
	return output.String(), nil
}
