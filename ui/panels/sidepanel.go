// Package panels provides the side panel widgets of the main window.
package panels

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"vru-annotate/internal/annotation"
	"vru-annotate/internal/shape"
)

// SidePanel shows the shape list for the current frame and label controls.
type SidePanel struct {
	store *annotation.Store

	list       *widget.List
	labelEntry *focusEntry
	countLabel *widget.Label
	content    fyne.CanvasObject

	// Called when the label entry gains or loses focus, so shortcuts can be
	// suppressed while typing.
	OnLabelFocus func(focused bool)

	ids []string
}

// NewSidePanel creates the panel bound to a store.
func NewSidePanel(store *annotation.Store) *SidePanel {
	sp := &SidePanel{store: store}

	sp.list = widget.NewList(
		func() int { return len(sp.ids) },
		func() fyne.CanvasObject {
			return widget.NewLabel("shape")
		},
		func(i widget.ListItemID, obj fyne.CanvasObject) {
			if i < 0 || i >= len(sp.ids) {
				return
			}
			sh := sp.store.GetShapeByID(sp.ids[i])
			if sh == nil {
				return
			}
			text := string(sh.Type)
			if sh.Label != "" {
				text = fmt.Sprintf("%s [%s]", text, sh.Label)
			}
			if sh.Locked {
				text += " (locked)"
			}
			if !sh.Visible {
				text += " (hidden)"
			}
			obj.(*widget.Label).SetText(text)
		},
	)
	sp.list.OnSelected = func(i widget.ListItemID) {
		if i >= 0 && i < len(sp.ids) {
			sp.store.SelectShapes([]string{sp.ids[i]}, false)
		}
	}

	sp.labelEntry = newFocusEntry(sp)
	sp.countLabel = widget.NewLabel("0 shapes")

	applyBtn := widget.NewButton("Apply Label", func() {
		text := sp.labelEntry.Text
		if text == "" {
			return
		}
		sp.store.SetLabel(sp.store.SelectedIDs(), text)
	})

	labelButtons := container.NewVBox()
	for _, vru := range shape.VRULabels {
		label := vru
		labelButtons.Add(widget.NewButton(label, func() {
			sp.store.SetLabel(sp.store.SelectedIDs(), label)
		}))
	}

	sp.content = container.NewBorder(
		widget.NewLabel("Shapes"),
		container.NewVBox(
			sp.countLabel,
			widget.NewSeparator(),
			widget.NewLabel("Label"),
			sp.labelEntry,
			applyBtn,
			widget.NewSeparator(),
			labelButtons,
		),
		nil, nil,
		sp.list,
	)

	store.OnChange(sp.reload)
	sp.reload()
	return sp
}

// Container returns the panel's root object.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.content
}

func (sp *SidePanel) reload() {
	shapes := sp.store.Shapes()
	sp.ids = sp.ids[:0]
	for _, sh := range shapes {
		sp.ids = append(sp.ids, sh.ID)
	}
	sp.countLabel.SetText(fmt.Sprintf("%d shapes", len(sp.ids)))
	sp.list.Refresh()
}

// focusEntry is an entry that reports focus transitions to the panel.
type focusEntry struct {
	widget.Entry
	panel *SidePanel
}

func newFocusEntry(sp *SidePanel) *focusEntry {
	fe := &focusEntry{panel: sp}
	fe.ExtendBaseWidget(fe)
	return fe
}

func (fe *focusEntry) FocusGained() {
	fe.Entry.FocusGained()
	if fe.panel.OnLabelFocus != nil {
		fe.panel.OnLabelFocus(true)
	}
}

func (fe *focusEntry) FocusLost() {
	fe.Entry.FocusLost()
	if fe.panel.OnLabelFocus != nil {
		fe.panel.OnLabelFocus(false)
	}
}
