package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Submit     key.Binding
	Newline    key.Binding
	SwitchMode key.Binding
	Voice      key.Binding
	Direction  key.Binding
	Agents     key.Binding
	Prev       key.Binding
	Next       key.Binding
	Copy       key.Binding
	Share      key.Binding
	Like       key.Binding
	Dislike    key.Binding
	ReadAloud  key.Binding
	StopAudio  key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline:    key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "newline")),
		SwitchMode: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "chat/translate")),
		Voice:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "voice")),
		Direction:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "swap languages")),
		Agents:     key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "agents")),
		Prev:       key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "previous answer")),
		Next:       key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "next answer")),
		Copy:       key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy")),
		Share:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "share")),
		Like:       key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "like")),
		Dislike:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "dislike")),
		ReadAloud:  key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "read aloud")),
		StopAudio:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "stop audio")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Help:       key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "more keys")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.SwitchMode, k.Voice, k.Agents, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.SwitchMode, k.Voice, k.Direction},
		{k.Prev, k.Next, k.Copy, k.Share},
		{k.Like, k.Dislike, k.ReadAloud, k.StopAudio},
		{k.ScrollUp, k.ScrollDown, k.Agents, k.Quit},
	}
}
