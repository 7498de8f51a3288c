package report

import (
	"slices"

	"github.com/sandrolain/gordl/pkg/diag"
	"github.com/sandrolain/gordl/pkg/types"
)

// ReportItem is a node that can appear in a ReportItems collection.
type ReportItem interface {
	Node
	// ItemName is the Name attribute, empty for anonymous items.
	ItemName() string
}

// itemBase holds the properties shared by all report items.
type itemBase struct {
	node
	Name       string
	Top        string
	Left       string
	Width      string
	Height     string
	Style      *Style
	Visibility *Visibility
}

func (it *itemBase) ItemName() string { return it.Name }

// item initialises the common part of a report item and returns the
// handlers for its common child elements.
func (c *Compilation) item(it *itemBase, self ReportItem, parent Node, el *element) handlers {
	c.init(&it.node, parent, el)
	it.Name = c.name(self, el, false)
	return handlers{
		"Top":        func(ch *element) { it.Top = ch.value() },
		"Left":       func(ch *element) { it.Left = ch.value() },
		"Width":      func(ch *element) { it.Width = ch.value() },
		"Height":     func(ch *element) { it.Height = ch.value() },
		"Style":      func(ch *element) { it.Style = newStyle(c, ch, self) },
		"Visibility": func(ch *element) { it.Visibility = newVisibility(c, ch, self) },
	}
}

func (it *itemBase) itemChildren() []Node {
	out := appendNode(nil, it.Style)
	return appendNode(out, it.Visibility)
}

// reportItems builds the items of a ReportItems element.
func (c *Compilation) reportItems(parent Node, el *element) []ReportItem {
	var out []ReportItem
	c.build(parent, el, handlers{
		"Textbox":   func(ch *element) { out = append(out, newTextbox(c, ch, parent)) },
		"Rectangle": func(ch *element) { out = append(out, newRectangle(c, ch, parent)) },
		"Image":     func(ch *element) { out = append(out, newImage(c, ch, parent)) },
		"Table":     func(ch *element) { out = append(out, newTable(c, ch, parent)) },
		"List":      func(ch *element) { out = append(out, newList(c, ch, parent)) },
		"Chart":     func(ch *element) { out = append(out, newChart(c, ch, parent)) },
	})
	return slices.Clip(out)
}

// Textbox displays the value of an expression.
type Textbox struct {
	itemBase
	Value   *Expression
	CanGrow bool
}

func newTextbox(c *Compilation, el *element, parent Node) *Textbox {
	t := &Textbox{}
	h := c.item(&t.itemBase, t, parent, el)
	h["Value"] = func(ch *element) { t.Value = c.expr(t, ch, types.TypeVariant) }
	h["CanGrow"] = func(ch *element) { t.CanGrow = c.boolValue(t, ch, false) }
	c.build(t, el, h, "Name")
	if t.Value == nil {
		c.missing(t, "a Value")
	}
	return t
}

func (t *Textbox) children() []Node            { return t.itemChildren() }
func (t *Textbox) expressions() []*Expression { return exprs(t.Value) }

// Rectangle groups report items.
type Rectangle struct {
	itemBase
	ReportItems []ReportItem
}

func newRectangle(c *Compilation, el *element, parent Node) *Rectangle {
	r := &Rectangle{}
	h := c.item(&r.itemBase, r, parent, el)
	h["ReportItems"] = func(ch *element) { r.ReportItems = c.reportItems(r, ch) }
	c.build(r, el, h, "Name")
	return r
}

func (r *Rectangle) children() []Node {
	return appendItems(r.itemChildren(), r.ReportItems)
}

// Image displays an external, embedded or database image.
type Image struct {
	itemBase
	Source   ImageSource
	Value    *Expression
	MIMEType *Expression
	Sizing   ImageSizing
}

func newImage(c *Compilation, el *element, parent Node) *Image {
	img := &Image{}
	h := c.item(&img.itemBase, img, parent, el)
	sourced := false
	h["Source"] = func(ch *element) {
		img.Source = imageSources.parse(c, img, ch)
		sourced = true
	}
	h["Value"] = func(ch *element) { img.Value = c.expr(img, ch, types.TypeString) }
	h["MIMEType"] = func(ch *element) { img.MIMEType = c.expr(img, ch, types.TypeString) }
	h["Sizing"] = func(ch *element) { img.Sizing = imageSizings.parse(c, img, ch) }
	c.build(img, el, h, "Name")
	if !sourced {
		c.missing(img, "a Source")
	}
	if img.Value == nil {
		c.missing(img, "a Value")
	}
	return img
}

func (img *Image) children() []Node            { return img.itemChildren() }
func (img *Image) expressions() []*Expression { return exprs(img.Value, img.MIMEType) }

// validate checks that an embedded image names a defined image. Computed
// names are only known at run time.
func (img *Image) validate() {
	if img.Source != SourceEmbedded || img.Value == nil || !img.Value.IsConstant() {
		return
	}
	name, _ := img.Value.Program().Constant().(string)
	if _, ok := img.comp.images[key(name)]; !ok {
		img.comp.report(diag.Recoverable, types.ErrUnknownImage, img, img.Value.Pos(),
			"embedded image %q is not defined", name)
	}
}

// PageSection is a page header or page footer. No row exists while it is
// rendered, so its expressions may not reference fields or aggregates.
type PageSection struct {
	node
	Height           string
	PrintOnFirstPage bool
	PrintOnLastPage  bool
	ReportItems      []ReportItem
	Style            *Style
}

func newPageSection(c *Compilation, el *element, parent Node) *PageSection {
	ps := &PageSection{PrintOnFirstPage: true, PrintOnLastPage: true}
	c.init(&ps.node, parent, el)
	c.build(ps, el, handlers{
		"Height":           func(ch *element) { ps.Height = ch.value() },
		"PrintOnFirstPage": func(ch *element) { ps.PrintOnFirstPage = c.boolValue(ps, ch, true) },
		"PrintOnLastPage":  func(ch *element) { ps.PrintOnLastPage = c.boolValue(ps, ch, true) },
		"ReportItems":      func(ch *element) { ps.ReportItems = c.reportItems(ps, ch) },
		"Style":            func(ch *element) { ps.Style = newStyle(c, ch, ps) },
	})
	return ps
}

// IsHeader reports whether ps is a page header.
func (ps *PageSection) IsHeader() bool {
	return ps.element == "PageHeader"
}

func (ps *PageSection) children() []Node {
	return appendItems(appendNode(nil, ps.Style), ps.ReportItems)
}

// Body holds the report items rendered once per report run.
type Body struct {
	node
	Height      string
	ReportItems []ReportItem
	Style       *Style
}

func newBody(c *Compilation, el *element, parent Node) *Body {
	b := &Body{}
	c.init(&b.node, parent, el)
	c.build(b, el, handlers{
		"Height":      func(ch *element) { b.Height = ch.value() },
		"ReportItems": func(ch *element) { b.ReportItems = c.reportItems(b, ch) },
		"Style":       func(ch *element) { b.Style = newStyle(c, ch, b) },
	})
	return b
}

func (b *Body) children() []Node {
	return appendItems(appendNode(nil, b.Style), b.ReportItems)
}

// Style holds presentation properties. Free-form properties are
// expressions; enumerated ones are parsed literals.
type Style struct {
	node
	Color           *Expression
	BackgroundColor *Expression
	FontFamily      *Expression
	FontSize        *Expression
	Format          *Expression
	FontWeight      FontWeight
	TextAlign       TextAlign
	BorderStyle     BorderStyle
}

func newStyle(c *Compilation, el *element, parent Node) *Style {
	s := &Style{}
	c.init(&s.node, parent, el)
	c.build(s, el, handlers{
		"Color":           func(ch *element) { s.Color = c.expr(s, ch, types.TypeString) },
		"BackgroundColor": func(ch *element) { s.BackgroundColor = c.expr(s, ch, types.TypeString) },
		"FontFamily":      func(ch *element) { s.FontFamily = c.expr(s, ch, types.TypeString) },
		"FontSize":        func(ch *element) { s.FontSize = c.expr(s, ch, types.TypeString) },
		"Format":          func(ch *element) { s.Format = c.expr(s, ch, types.TypeString) },
		"FontWeight":      func(ch *element) { s.FontWeight = fontWeights.parse(c, s, ch) },
		"TextAlign":       func(ch *element) { s.TextAlign = textAligns.parse(c, s, ch) },
		"BorderStyle":     func(ch *element) { s.BorderStyle = borderStyles.parse(c, s, ch) },
	})
	return s
}

func (s *Style) expressions() []*Expression {
	return exprs(s.Color, s.BackgroundColor, s.FontFamily, s.FontSize, s.Format)
}

// Visibility controls whether an item is shown and which item toggles it.
type Visibility struct {
	node
	Hidden     *Expression
	ToggleItem string
}

func newVisibility(c *Compilation, el *element, parent Node) *Visibility {
	v := &Visibility{}
	c.init(&v.node, parent, el)
	c.build(v, el, handlers{
		"Hidden":     func(ch *element) { v.Hidden = c.expr(v, ch, types.TypeBoolean) },
		"ToggleItem": func(ch *element) { v.ToggleItem = ch.value() },
	})
	return v
}

func (v *Visibility) expressions() []*Expression {
	return exprs(v.Hidden)
}

func (v *Visibility) validate() {
	if v.ToggleItem == "" {
		return
	}
	if _, ok := v.comp.items[key(v.ToggleItem)]; !ok {
		v.comp.report(diag.Ignorable, types.ErrUnknownItem, v, v.pos,
			"toggle item %q is not defined", v.ToggleItem)
	}
}
