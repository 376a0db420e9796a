package goquery_test

import (
	"testing"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscoverer() *goquery.Discoverer {
	return goquery.NewDiscoverer(sapnhap.DefaultEndpoint())
}

func TestDiscoverer_DiscoverProvinces(t *testing.T) {
	t.Parallel()

	t.Run("returns non-placeholder options of the province widget in order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<select name="sort"><option value="1">Mới nhất</option></select>
<select name="tinh-cu">
	<option value="0">-- Chọn tỉnh --</option>
	<option value="01">H&agrave; N&#x1ed9;i</option>
	<option value="79">Hồ Chí Minh</option>
	<option value="">Trống</option>
	<option value="83">Vĩnh Long</option>
</select>
</body></html>`

		units, err := newDiscoverer().DiscoverProvinces(html)

		require.NoError(t, err)
		require.Len(t, units, 3)
		assert.Equal(t, sapnhap.AdministrativeUnit{Code: "01", Name: "Hà Nội", Level: sapnhap.LevelProvince}, units[0])
		assert.Equal(t, "79", units[1].Code)
		assert.Equal(t, "Vĩnh Long", units[2].Name)
	})

	t.Run("decodes double-escaped entities", func(t *testing.T) {
		t.Parallel()

		html := `<select><option value="48">&amp;#x110;&amp;agrave; Nẵng</option><option value="01">Hà Nội</option></select>`

		units, err := newDiscoverer().DiscoverProvinces(html)

		require.NoError(t, err)
		require.Len(t, units, 2)
		assert.Equal(t, "Đà Nẵng", units[0].Name)
	})

	t.Run("deduplicates options by value", func(t *testing.T) {
		t.Parallel()

		html := `<select><option value="01">Hà Nội</option><option value="01">Hà Nội (cũ)</option></select>`

		units, err := newDiscoverer().DiscoverProvinces(html)

		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, "Hà Nội", units[0].Name)
	})

	t.Run("falls back to province links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="/tra-cuu?MaTinh=01">Hà Nội</a>
<a href="/tra-cuu?MaTinh=01&amp;MaXa=00004">Phường Ba Đình</a>
<a href="/tra-cuu?MaTinh=79">Hồ Chí Minh</a>
<a href="/tra-cuu?MaTinh=01">Hà Nội again</a>
</body></html>`

		units, err := newDiscoverer().DiscoverProvinces(html)

		require.NoError(t, err)
		require.Len(t, units, 2)
		assert.Equal(t, "01", units[0].Code)
		assert.Equal(t, "Hà Nội", units[0].Name)
		assert.Equal(t, "79", units[1].Code)
	})

	t.Run("returns empty slice when nothing is discoverable", func(t *testing.T) {
		t.Parallel()

		units, err := newDiscoverer().DiscoverProvinces(`<html><body><p>Không có dữ liệu</p></body></html>`)

		require.NoError(t, err)
		assert.NotNil(t, units)
		assert.Empty(t, units)
	})
}

func TestDiscoverer_DiscoverCommunes(t *testing.T) {
	t.Parallel()

	t.Run("reads commune widget with parent code", func(t *testing.T) {
		t.Parallel()

		html := `<select name="tinh-cu"><option value="01">Hà Nội</option></select>
<select name="xa-cu">
	<option value="">-- Chọn xã/phường --</option>
	<option value="00001">Phường Phúc Xá</option>
	<option value="00004">Phường Trúc Bạch</option>
</select>`

		units, err := newDiscoverer().DiscoverCommunes(html, "01")

		require.NoError(t, err)
		require.Len(t, units, 2)
		assert.Equal(t, sapnhap.AdministrativeUnit{
			Code: "00001", Name: "Phường Phúc Xá", Level: sapnhap.LevelCommune, ParentCode: "01",
		}, units[0])
	})

	t.Run("scans links scoped to the province", func(t *testing.T) {
		t.Parallel()

		html := `<ul>
<li><a href="/tra-cuu?MaTinh=83&amp;MaXa=29242">1. Phường 1</a></li>
<li><a href="/tra-cuu?MaTinh=84&amp;MaXa=30001">2. Xã khác tỉnh</a></li>
<li><a href="/tra-cuu?MaTinh=83&amp;MaXa=29245">12.  Xã Tân Ngãi</a></li>
<li><a href="/tra-cuu?MaTinh=83&amp;MaXa=29242">Phường 1 lặp</a></li>
<li><a href="/tin-tuc">Tin tức</a></li>
</ul>`

		units, err := newDiscoverer().DiscoverCommunes(html, "83")

		require.NoError(t, err)
		require.Len(t, units, 2)
		assert.Equal(t, "29242", units[0].Code)
		assert.Equal(t, "Phường 1", units[0].Name)
		assert.Equal(t, "29245", units[1].Code)
		assert.Equal(t, "Xã Tân Ngãi", units[1].Name)
		assert.Equal(t, "83", units[1].ParentCode)
	})

	t.Run("uses configured query parameters", func(t *testing.T) {
		t.Parallel()

		d := goquery.NewDiscoverer(sapnhap.Endpoint{ProvinceParam: "tinh", CommuneParam: "xa"})
		html := `<a href="?tinh=01&amp;xa=7">Xã Bảy</a>`

		units, err := d.DiscoverCommunes(html, "01")

		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, "7", units[0].Code)
	})

	t.Run("returns empty slice for foreign links only", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/tra-cuu?MaTinh=84&amp;MaXa=30001">Xã khác</a>`

		units, err := newDiscoverer().DiscoverCommunes(html, "83")

		require.NoError(t, err)
		assert.Empty(t, units)
	})
}
