package modules

import (
	"bytes"
	"testing"
	"time"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportTrades(t *testing.T) {
	sold := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	trades := []models.Trade{
		{
			TokenMint:     "MINT1",
			BuyPrice:      0.01,
			SellPrice:     0.02,
			SellTimestamp: &sold,
			Enriched:      models.TokenMetadata{Name: "Pepe", Symbol: "PEPE"},
		},
		{TokenMint: "MINT2", Enriched: models.UnknownToken()},
	}

	buffer, err := ExportTrades(trades)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(TRADES_SHEET)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Token Mint", rows[0][0])
	assert.Len(t, rows[0], len(tradeHeader))
	assert.Equal(t, []string{"MINT1", "Pepe", "PEPE"}, rows[1][:3])
	assert.Equal(t, "UNK", rows[2][2])
}
