package goquery_test

import (
	"testing"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts pairs under the before and after header", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><th>STT</th><th>Trước sáp nhập</th><th>Sau sáp nhập</th></tr>
<tr><td>1</td><td>Xã A, huyện B</td><td>Xã C, huyện D</td></tr>
</table>`

		info := goquery.NewExtractor().Extract(html)

		assert.Equal(t, []sapnhap.DetailPair{{Before: "Xã A, huyện B", After: "Xã C, huyện D"}}, info.Details)
		assert.Equal(t, "Xã A, huyện B", info.Before)
		assert.Equal(t, "Xã C, huyện D", info.After)

		rec := sapnhap.NewMergerRecord(sapnhap.AdministrativeUnit{Code: "01"}, nil, "u", info)
		assert.Equal(t, 1, rec.ChangeCount)
		assert.True(t, rec.HasInfo)
	})

	t.Run("returns empty info without table or markers", func(t *testing.T) {
		t.Parallel()

		info := goquery.NewExtractor().Extract(`<html><body><table><tr><td>a</td><td>b</td></tr></table></body></html>`)

		require.NotNil(t, info)
		assert.True(t, info.Empty())
		assert.False(t, sapnhap.NewMergerRecord(sapnhap.AdministrativeUnit{Code: "01"}, nil, "u", info).HasInfo)
	})

	t.Run("keeps first values as summary and skips short rows and empty cells", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><td>Ghi chú</td></tr>
<tr><td>TRƯỚC SÁP NHẬP</td><td>SAU SÁP NHẬP</td></tr>
<tr><td>chỉ một ô</td></tr>
<tr><td></td><td>Xã Trống</td></tr>
<tr><td>Xã Một</td><td>Xã Hai</td></tr>
<tr><td>Xã Ba</td><td>Xã Bốn</td></tr>
</table>`

		info := goquery.NewExtractor().Extract(html)

		require.Len(t, info.Details, 2)
		assert.Equal(t, "Xã Một", info.Before)
		assert.Equal(t, "Xã Hai", info.After)
		assert.Equal(t, sapnhap.DetailPair{Before: "Xã Ba", After: "Xã Bốn"}, info.Details[1])
	})

	t.Run("uses only the first matching table", func(t *testing.T) {
		t.Parallel()

		html := `<table><tr><td>x</td><td>y</td></tr></table>
<table>
<tr><td>Trước sáp nhập</td><td>Sau sáp nhập</td></tr>
<tr><td>Xã A</td><td>Xã B</td></tr>
</table>
<table>
<tr><td>Trước sáp nhập</td><td>Sau sáp nhập</td></tr>
<tr><td>Xã C</td><td>Xã D</td></tr>
</table>`

		info := goquery.NewExtractor().Extract(html)

		assert.Equal(t, []sapnhap.DetailPair{{Before: "Xã A", After: "Xã B"}}, info.Details)
	})

	t.Run("decodes entities in cells", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><td>Trước sáp nhập</td><td>Sau sáp nhập</td></tr>
<tr><td>X&atilde; A &amp;amp; B</td><td>Ph&#432;&#7901;ng C</td></tr>
</table>`

		info := goquery.NewExtractor().Extract(html)

		require.Len(t, info.Details, 1)
		assert.Equal(t, "Xã A & B", info.Details[0].Before)
		assert.Equal(t, "Phường C", info.Details[0].After)
	})

	t.Run("rejects cells not longer than the minimum length", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><td>Trước sáp nhập</td><td>Sau sáp nhập</td></tr>
<tr><td>-</td><td>Xã</td></tr>
<tr><td>Xã Tân Ngãi</td><td>Phường Tân Ngãi</td></tr>
</table>`

		info := goquery.NewExtractor(goquery.WithMinCellLength(5)).Extract(html)

		require.Len(t, info.Details, 1)
		assert.Equal(t, "Xã Tân Ngãi", info.Details[0].Before)
	})

	t.Run("matched header without accepted rows yields empty info", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><th>STT</th><th>Trước sáp nhập</th><th>Sau sáp nhập</th></tr>
</table>`

		info := goquery.NewExtractor().Extract(html)

		assert.True(t, info.Empty())
		assert.Empty(t, info.Before)
		assert.Empty(t, info.After)
	})

	t.Run("does not fall back when every row is too short", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><th>STT</th><th>Trước sáp nhập</th><th>Sau sáp nhập</th></tr>
<tr><td>1</td><td>Xã A</td><td>Xã B</td></tr>
</table>`

		info := goquery.NewExtractor(goquery.WithMinCellLength(5)).Extract(html)

		assert.Empty(t, info.Before)
		assert.Empty(t, info.After)
		assert.Empty(t, info.Details)
	})

	t.Run("falls back to marker lines in page text", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<p>Trước sáp nhập: Xã Long Phước, huyện Long Hồ</p>
<p>Sau sáp nhập: Xã Long Phước, tỉnh Vĩnh Long</p>
</body></html>`

		info := goquery.NewExtractor().Extract(html)

		assert.Equal(t, "Xã Long Phước, huyện Long Hồ", info.Before)
		assert.Equal(t, "Xã Long Phước, tỉnh Vĩnh Long", info.After)
		assert.Empty(t, info.Details)
	})

	t.Run("applies custom markers", func(t *testing.T) {
		t.Parallel()

		html := `<table>
<tr><td>Old name</td><td>New name</td></tr>
<tr><td>Alpha</td><td>Beta</td></tr>
</table>`

		info := goquery.NewExtractor(goquery.WithMarkers("Old", "New")).Extract(html)

		assert.Equal(t, []sapnhap.DetailPair{{Before: "Alpha", After: "Beta"}}, info.Details)
	})
}
