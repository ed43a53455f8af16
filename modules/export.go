package modules

import (
	"bytes"

	"github.com/CapsLock-Studio/sniper-dashboard/models"
	"github.com/xuri/excelize/v2"
)

const TRADES_SHEET string = "Trades"

var tradeHeader = []any{
	"Token Mint", "Name", "Symbol", "Buy (SOL)", "Sell (SOL)", "Change %",
	"Profit (SOL)", "Buy (USD)", "Sell (USD)", "Profit (USD)", "Buy Time", "Sell Time", "Tokens Sold",
}

// ExportTrades writes the priced trade history as an xlsx workbook.
func ExportTrades(trades []models.Trade) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", TRADES_SHEET); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(TRADES_SHEET, "A1", &tradeHeader); err != nil {
		return nil, err
	}

	for i, t := range trades {
		row := []any{
			t.TokenMint, t.Enriched.Name, t.Enriched.Symbol, t.BuyPrice, t.SellPrice, t.PriceChangePercent,
			t.EstimatedProfitSol, t.BuyUsd, t.SellUsd, t.ProfitUsd, "", "", "",
		}

		if t.BuyTimestamp != nil {
			row[10] = *t.BuyTimestamp
		}

		if t.SellTimestamp != nil {
			row[11] = *t.SellTimestamp
		}

		if t.TokenAmountSold != nil {
			row[12] = *t.TokenAmountSold
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}

		if err := f.SetSheetRow(TRADES_SHEET, cell, &row); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}
