package browsertest

import (
	"encoding/json"
)

type elementArgs struct {
	Strategy struct {
		Name string `json:"name"`
	} `json:"strategy"`
	Text string `json:"text"`
}

// builtins answer the locator and location scripts from page elements
var builtins = map[string]Handler{
	"browser.location": func(d *Driver, p *Page, _ json.RawMessage) (any, error) {
		return map[string]string{"href": p.URL, "title": p.Title}, nil
	},
	"selector.resolve": withElement(func(d *Driver, p *Page, el *Element, _ elementArgs) any {
		return map[string]any{
			"found":      true,
			"tag":        el.Tag,
			"id":         el.ID,
			"className":  el.Class,
			"text":       el.Text,
			"pressed":    el.Pressed,
			"hasPressed": el.Pressed != "",
		}
	}),
	"selector.click": withElement(func(d *Driver, p *Page, el *Element, _ elementArgs) any {
		d.recordClick(el.Key)
		if el.OnClick != nil {
			el.OnClick(d, p)
		}
		return map[string]bool{"ok": true}
	}),
	"selector.setText": withElement(func(d *Driver, p *Page, el *Element, a elementArgs) any {
		if !el.IgnoresInput {
			el.Text = a.Text
		}
		return map[string]any{"ok": true, "text": el.Text}
	}),
	"selector.setValue": withElement(func(d *Driver, p *Page, el *Element, a elementArgs) any {
		if !el.IgnoresInput {
			el.Value = a.Text
		}
		return map[string]bool{"ok": true}
	}),
	"selector.readText": withElement(func(d *Driver, p *Page, el *Element, _ elementArgs) any {
		return map[string]any{"ok": true, "text": el.Text}
	}),
	"selector.scrollIntoView": withElement(func(d *Driver, p *Page, el *Element, _ elementArgs) any {
		return map[string]bool{"ok": true}
	}),
}

func withElement(fn func(d *Driver, p *Page, el *Element, a elementArgs) any) Handler {
	return func(d *Driver, p *Page, raw json.RawMessage) (any, error) {
		var a elementArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		el := p.find(a.Strategy.Name)
		if el == nil {
			return map[string]any{"found": false, "ok": false}, nil
		}
		return fn(d, p, el, a), nil
	}
}
