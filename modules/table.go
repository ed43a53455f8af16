package modules

import (
	"io"

	"github.com/CapsLock-Studio/sniper-dashboard/strategy"
	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintSnapshot renders the configuration in the terminal, marking which
// strategy parameters the bot currently reads.
func PrintSnapshot(w io.Writer, snapshot *Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("active strategy: %s", snapshot.Selection.Active)
	t.AppendHeader(table.Row{"Table", "Key", "Value", "Namespace", "In Effect", "Description"})

	for _, entry := range snapshot.Bot {
		value := entry.Value
		if IsSecretKey(entry.Key) {
			value = SECRET_MASK
		}

		t.AppendRow(table.Row{"bot", entry.Key, value, strategy.KeyNamespace(entry.Key), true, entry.Description})
	}

	t.AppendSeparator()

	for _, entry := range snapshot.Strategy {
		t.AppendRow(table.Row{
			"strategy",
			entry.Key,
			entry.Value,
			strategy.KeyNamespace(entry.Key),
			snapshot.Selection.InEffect(entry.Key),
			entry.Description,
		})
	}

	if len(snapshot.Wallets) > 0 {
		t.AppendSeparator()
	}

	for _, entry := range snapshot.Wallets {
		t.AppendRow(table.Row{"strategy", entry.Key, entry.Value, strategy.NamespaceWallet, true, entry.Description})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}
