package sapnhap_test

import (
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/sapnhap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeCell(t *testing.T) {
	t.Parallel()

	t.Run("strips control characters", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Xã A\tB\nC", sapnhap.SanitizeCell("Xã\x00 A\tB\nC\x1b\u0085"))
	})

	t.Run("truncates to the cell limit", func(t *testing.T) {
		t.Parallel()
		got := sapnhap.SanitizeCell(strings.Repeat("ã", sapnhap.MaxCellLength+10))
		assert.Equal(t, sapnhap.MaxCellLength, len([]rune(got)))
	})
}

func TestMergerRecord_Row(t *testing.T) {
	t.Parallel()

	rec := sapnhap.NewMergerRecord(
		sapnhap.AdministrativeUnit{Code: "83", Name: "Vĩnh Long"},
		&sapnhap.AdministrativeUnit{Code: "29242", Name: "Phường 1"},
		"https://example.com/?MaTinh=83&MaXa=29242",
		&sapnhap.MergerInfo{Before: "A", After: "B", Details: []sapnhap.DetailPair{{Before: "A", After: "B"}}},
	)

	row := rec.Row()

	require.Len(t, row, len(sapnhap.RecordColumns))
	assert.Equal(t, []string{
		"83", "Vĩnh Long", "29242", "Phường 1", "Xã/Phường", "https://example.com/?MaTinh=83&MaXa=29242",
		"A", "B", `[{"truoc":"A","sau":"B"}]`, "1", "true",
	}, row)

	got, err := sapnhap.NewTableReader(sapnhap.RecordColumns).ParseRecordRow(row)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestTableReader(t *testing.T) {
	t.Parallel()

	t.Run("reads columns by name in any order", func(t *testing.T) {
		t.Parallel()

		r := sapnhap.NewTableReader([]string{"\ufeffma_xa", " ma_tinh ", "ten_xa"})

		assert.True(t, r.Has("ma_tinh", "ma_xa"))
		assert.False(t, r.Has("url"))
		assert.Equal(t, "01", r.Get([]string{"001", "01", "Phúc Xá"}, "ma_tinh"))
		assert.Equal(t, "", r.Get([]string{"001"}, "ten_xa"))
		assert.Equal(t, "", r.Get([]string{"001"}, "url"))
	})

	t.Run("derives province level for rows without commune", func(t *testing.T) {
		t.Parallel()

		r := sapnhap.NewTableReader([]string{"ma_tinh", "ten_tinh", "so_luong_thay_doi", "co_thong_tin"})

		rec, err := r.ParseRecordRow([]string{"01", "Hà Nội", "7", "true"})

		require.NoError(t, err)
		assert.Equal(t, sapnhap.LevelProvince, rec.Level)
		assert.Zero(t, rec.ChangeCount)
		assert.False(t, rec.HasInfo)
	})

	t.Run("rejects record tables without province column", func(t *testing.T) {
		t.Parallel()

		_, err := sapnhap.NewTableReader([]string{"url"}).ParseRecordRow([]string{"x"})

		assert.Equal(t, sapnhap.EINVALID, sapnhap.ErrorCode(err))
	})

	t.Run("round-trips error log rows", func(t *testing.T) {
		t.Parallel()

		entry := &sapnhap.ErrorLogEntry{
			Timestamp:    time.Date(2025, 7, 1, 9, 30, 0, 0, time.Local),
			Kind:         sapnhap.ErrorKindTimeout,
			URL:          "https://example.com/?MaTinh=01&MaXa=001",
			Message:      "timeout: deadline exceeded",
			ProvinceCode: "01",
			CommuneCode:  "001",
			ProvinceName: "Hà Nội",
			CommuneName:  "Phường Phúc Xá",
		}

		got, err := sapnhap.NewTableReader(sapnhap.ErrorLogColumns).ParseErrorLogRow(entry.Row())

		require.NoError(t, err)
		assert.True(t, entry.Timestamp.Equal(got.Timestamp))
		got.Timestamp = entry.Timestamp
		assert.Equal(t, entry, got)
	})

	t.Run("rejects error logs without unit columns", func(t *testing.T) {
		t.Parallel()

		_, err := sapnhap.NewTableReader([]string{"url", "ma_tinh"}).ParseErrorLogRow([]string{"u", "01"})

		assert.Equal(t, sapnhap.EINVALID, sapnhap.ErrorCode(err))
	})
}
