package ui

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/panel/internal/types"
	tele_api "github.com/temoto/panel/tele"
)

// Session is navigation cursor over Menu.
// Invariant: top <= selected < top+PageSize, both index real items of table.
type Session struct {
	ui    *UI
	menu  *Menu
	table TableID
	sel   int
	top   int
}

// RunMenu blocks until dismissible root is backed out of (returns nil)
// or ctx is done (returns ctx error).
func (self *UI) RunMenu(ctx context.Context, menu *Menu) error {
	s := self.NewSession(menu)
	return s.Run(ctx)
}

// NewSession draws root table.
func (self *UI) NewSession(menu *Menu) *Session {
	s := &Session{ui: self, menu: menu}
	self.state(tele_api.StateMenu)
	s.selectAndDraw(menu.Root())
	return s
}

func (self *Session) Table() TableID { return self.table }
func (self *Session) Selected() int  { return self.sel }
func (self *Session) Top() int       { return self.top }

func (self *Session) Run(ctx context.Context) error {
	for {
		e, err := self.ui.WaitEvent(ctx)
		if err != nil {
			return err
		}
		done, err := self.Handle(ctx, e)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Handle applies one event. done=true when menu is dismissed.
func (self *Session) Handle(ctx context.Context, e types.Event) (bool, error) {
	t := self.menu.Table(self.table)
	switch {
	case e.Is(types.ButtonDown, types.PhasePushed, types.PhaseRepeated):
		if self.sel+1 >= len(t.Items) {
			return false, nil
		}
		self.sel++
		if self.sel-self.top >= PageSize {
			self.top++
		}
		self.drawPage()
		self.ui.flush()

	case e.Is(types.ButtonUp, types.PhasePushed, types.PhaseRepeated):
		if self.sel == 0 {
			return false, nil
		}
		self.sel--
		if self.sel < self.top {
			self.top--
		}
		self.drawPage()
		self.ui.flush()

	case e.Is(types.ButtonSelect, types.PhasePushed):
		return false, self.execute(ctx)

	case e.Is(types.ButtonBack, types.PhasePushed):
		switch {
		case t.Kind == TableSub:
			self.ui.activity(tele_api.Activity{Kind: tele_api.ActivityBack, Table: t.Name})
			self.selectAndDraw(t.Back)
		case t.Back == NoTable:
			self.ui.activity(tele_api.Activity{Kind: tele_api.ActivityExit, Table: t.Name})
			return true, nil
		}
	}
	return false, nil
}

func (self *Session) execute(ctx context.Context) error {
	t := self.menu.Table(self.table)
	item := &t.Items[self.sel]
	switch item.Kind {
	case ItemSubMenu:
		self.ui.activity(tele_api.Activity{Kind: tele_api.ActivitySubmenu, Table: t.Name, Label: item.Label})
		self.selectAndDraw(item.Sub)

	case ItemCommand:
		self.ui.Log.Debugf("ui menu=%s command=%s", t.Name, item.Label)
		self.ui.activity(tele_api.Activity{Kind: tele_api.ActivityCommand, Table: t.Name, Label: item.Label})
		if err := item.Command(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			self.ui.Log.Error(errors.Annotatef(err, "menu=%s command=%s", t.Name, item.Label))
		}
		self.ui.state(tele_api.StateMenu)
		self.selectAndDraw(self.table)

	case ItemToggle:
		status := item.Toggle(true)
		self.ui.activity(tele_api.Activity{Kind: tele_api.ActivityToggle, Table: t.Name, Label: item.Label, Status: status})
		self.drawItem(self.sel, self.sel-self.top)
		self.ui.flush()
	}
	return nil
}

func (self *Session) selectAndDraw(id TableID) {
	self.table = id
	self.sel = 0
	self.top = 0
	self.ui.Log.Debugf("ui menu select table=%s", self.menu.Table(id).Name)
	self.ui.Display.ClearSpace()
	self.drawPage()
	right := LabelBack
	if self.menu.Permanent(id) {
		right = ""
	}
	self.ui.DrawButtonBar(LabelSelect, right)
	self.ui.flush()
}

func (self *Session) drawPage() {
	t := self.menu.Table(self.table)
	for line := 0; line < PageSize; line++ {
		idx := self.top + line
		if idx >= len(t.Items) {
			break
		}
		self.drawItem(idx, line)
	}
}

func (self *Session) drawItem(idx, line int) {
	d := self.ui.Display
	item := &self.menu.Table(self.table).Items[idx]
	fill := patternBlank
	printText := d.Print
	if idx == self.sel {
		fill = patternFull
		printText = d.PrintReverse
	}

	d.SetCursor(0, line)
	d.FillTo(menuIndentX, fill)
	switch item.Kind {
	case ItemSubMenu:
		printText(item.Label)
		d.FillTo(d.Width()-d.StringWidth(glyphArrow), fill)
		printText(glyphArrow)

	case ItemCommand:
		printText(item.Label)
		d.FillToEnd(fill)

	case ItemToggle:
		status := item.Toggle(false)
		printText(item.Label)
		d.FillTo(d.Width()-d.StringWidth(status), fill)
		printText(status)
	}
}
