package refdata_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finguard/internal/refdata"
)

func workbook(t *testing.T, sheets map[string][][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cellName, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cellName, &r))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseWorkbook(t *testing.T) {
	t.Run("rates and hsn sheets", func(t *testing.T) {
		buf := workbook(t, map[string][][]any{
			refdata.RatesSheet: {
				{"hsn_sac_code", "description", "rate_cgst", "rate_sgst", "rate_igst", "effective_from", "effective_to"},
				{"8471", "Computers", 9, 9, 18, "2017-07-01", "2022-12-31"},
				{"8471", "Computers", 6, 6, 12, "2023-01-01", ""},
			},
			refdata.HSNSheet: {
				{"code", "description", "gst_rate", "is_service"},
				{"8471", "Computers", "18%", "no"},
				{"998314", "IT consulting", 18, ""},
				{"8471", "Duplicate row", 5, ""},
			},
		})

		rates, hsn, err := refdata.ParseWorkbook(buf)
		require.NoError(t, err)
		require.Len(t, rates, 2)
		assert.Equal(t, 9.0, rates[0].CGST)
		require.NotNil(t, rates[0].EffectiveTo)
		assert.Nil(t, rates[1].EffectiveTo)

		require.Len(t, hsn, 2)
		assert.Equal(t, 18.0, hsn[0].GSTRate)
		assert.False(t, hsn[0].IsService)
		assert.True(t, hsn[1].IsService)
	})

	t.Run("missing sheets are empty", func(t *testing.T) {
		buf := workbook(t, map[string][][]any{"Other": {{"x"}}})
		rates, hsn, err := refdata.ParseWorkbook(buf)
		require.NoError(t, err)
		assert.Empty(t, rates)
		assert.Empty(t, hsn)
	})

	t.Run("missing required column", func(t *testing.T) {
		buf := workbook(t, map[string][][]any{
			refdata.RatesSheet: {{"hsn_sac_code", "description"}, {"8471", "Computers"}},
		})
		_, _, err := refdata.ParseWorkbook(buf)
		assert.ErrorContains(t, err, "effective_from")
	})

	t.Run("bad date", func(t *testing.T) {
		buf := workbook(t, map[string][][]any{
			refdata.RatesSheet: {{"hsn_sac_code", "effective_from"}, {"8471", "someday"}},
		})
		_, _, err := refdata.ParseWorkbook(buf)
		assert.ErrorContains(t, err, "row 2")
	})
}
