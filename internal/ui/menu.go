package ui

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/temoto/panel/helpers"
)

// TableID is index of table in Menu arena.
type TableID int

const NoTable TableID = -1

type TableKind uint8

const (
	TableMain TableKind = iota + 1
	TableSub
)

func (k TableKind) String() string {
	switch k {
	case TableMain:
		return "main"
	case TableSub:
		return "sub"
	}
	return fmt.Sprintf("TableKind(%d)", uint8(k))
}

type ItemKind uint8

const (
	ItemCommand ItemKind = iota + 1
	ItemToggle
	ItemSubMenu
)

func (k ItemKind) String() string {
	switch k {
	case ItemCommand:
		return "command"
	case ItemToggle:
		return "toggle"
	case ItemSubMenu:
		return "submenu"
	}
	return fmt.Sprintf("ItemKind(%d)", uint8(k))
}

// CommandFunc runs on Select. Menu is redrawn after it returns, error or not.
type CommandFunc func(ctx context.Context) error

// ToggleFunc reports current status text. With advance=true it switches
// to next state first. advance=false must not change state.
type ToggleFunc func(advance bool) string

type Item struct {
	Kind    ItemKind
	Label   string
	Command CommandFunc
	Toggle  ToggleFunc
	Sub     TableID
}

func Command(label string, f CommandFunc) Item {
	return Item{Kind: ItemCommand, Label: label, Command: f, Sub: NoTable}
}
func Toggle(label string, f ToggleFunc) Item {
	return Item{Kind: ItemToggle, Label: label, Toggle: f, Sub: NoTable}
}
func SubMenu(label string, sub TableID) Item {
	return Item{Kind: ItemSubMenu, Label: label, Sub: sub}
}

// Table is one menu screen.
// Main table with Back=NoTable may be dismissed with Back button,
// Back=self makes it permanent. Sub table Back is its parent.
type Table struct {
	Name  string
	Kind  TableKind
	Back  TableID
	Items []Item
}

// Menu is validated read-only arena of tables.
type Menu struct {
	tables []Table
	root   TableID
}

func NewMenu(tables []Table, root TableID) (*Menu, error) {
	self := &Menu{tables: tables, root: root}
	if err := self.validate(); err != nil {
		return nil, errors.Annotate(err, "menu")
	}
	return self, nil
}

func (self *Menu) Root() TableID { return self.root }
func (self *Menu) Len() int      { return len(self.tables) }

func (self *Menu) Table(id TableID) *Table {
	if !self.valid(id) {
		panic(fmt.Sprintf("code error menu table=%d not found", id))
	}
	return &self.tables[id]
}

// Lookup finds table by name.
func (self *Menu) Lookup(name string) (TableID, bool) {
	for i := range self.tables {
		if self.tables[i].Name == name {
			return TableID(i), true
		}
	}
	return NoTable, false
}

// Permanent reports whether Back on table does nothing.
func (self *Menu) Permanent(id TableID) bool {
	t := self.Table(id)
	return t.Kind == TableMain && t.Back == id
}

func (self *Menu) valid(id TableID) bool { return id >= 0 && int(id) < len(self.tables) }

func (self *Menu) validate() error {
	if len(self.tables) == 0 {
		return errors.NotValidf("empty")
	}
	if !self.valid(self.root) {
		return errors.NotValidf("root=%d", self.root)
	}
	errs := make([]error, 0)
	if self.tables[self.root].Kind != TableMain {
		errs = append(errs, errors.NotValidf("root table=%s kind=%s", self.tables[self.root].Name, self.tables[self.root].Kind))
	}
	for i := range self.tables {
		id := TableID(i)
		t := &self.tables[i]
		if len(t.Items) == 0 {
			errs = append(errs, errors.NotValidf("table=%s no items", t.Name))
		}
		switch t.Kind {
		case TableMain:
			if id != self.root {
				errs = append(errs, errors.NotValidf("table=%s main is not root", t.Name))
			}
			if t.Back != NoTable && t.Back != id {
				errs = append(errs, errors.NotValidf("table=%s main back=%d must be none or self", t.Name, t.Back))
			}
		case TableSub:
			if !self.valid(t.Back) || t.Back == id {
				errs = append(errs, errors.NotValidf("table=%s sub back=%d", t.Name, t.Back))
			} else if !self.reachesMain(id) {
				errs = append(errs, errors.NotValidf("table=%s back chain cycle", t.Name))
			} else if !self.opens(t.Back, id) {
				errs = append(errs, errors.NotValidf("table=%s back=%s has no submenu item leading here", t.Name, self.tables[t.Back].Name))
			}
		default:
			errs = append(errs, errors.NotValidf("table=%s kind=%s", t.Name, t.Kind))
		}
		for j := range t.Items {
			item := &t.Items[j]
			switch item.Kind {
			case ItemCommand:
				if item.Command == nil {
					errs = append(errs, errors.NotValidf("table=%s item=%s command=nil", t.Name, item.Label))
				}
			case ItemToggle:
				if item.Toggle == nil {
					errs = append(errs, errors.NotValidf("table=%s item=%s toggle=nil", t.Name, item.Label))
				}
			case ItemSubMenu:
				if !self.valid(item.Sub) {
					errs = append(errs, errors.NotValidf("table=%s item=%s submenu=%d", t.Name, item.Label, item.Sub))
				}
			default:
				errs = append(errs, errors.NotValidf("table=%s item=%s kind=%s", t.Name, item.Label, item.Kind))
			}
		}
	}
	return helpers.FoldErrors(errs)
}

// opens reports whether parent has submenu item leading to child.
func (self *Menu) opens(parent, child TableID) bool {
	for _, item := range self.tables[parent].Items {
		if item.Kind == ItemSubMenu && item.Sub == child {
			return true
		}
	}
	return false
}

// back chain of sub table must end at root without revisiting
func (self *Menu) reachesMain(id TableID) bool {
	for steps := 0; steps <= len(self.tables); steps++ {
		if !self.valid(id) {
			return false
		}
		t := &self.tables[id]
		if t.Kind == TableMain {
			return true
		}
		id = t.Back
	}
	return false
}
