package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/sapnhap"
	sapnhaphttp "github.com/fwojciec/sapnhap/http"
	"github.com/fwojciec/sapnhap/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestHandler_Provinces(t *testing.T) {
	t.Parallel()

	t.Run("lists stored provinces", func(t *testing.T) {
		t.Parallel()

		records := &mock.RecordService{
			FindProvincesFn: func(_ context.Context) ([]sapnhap.AdministrativeUnit, error) {
				return []sapnhap.AdministrativeUnit{{Code: "01", Name: "Hà Nội", Level: sapnhap.LevelProvince}}, nil
			},
		}

		rec := serve(t, sapnhaphttp.NewHandler(records, nil), "/provinces")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
		var got []sapnhap.AdministrativeUnit
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Hà Nội", got[0].Name)
	})

	t.Run("hides internal errors", func(t *testing.T) {
		t.Parallel()

		records := &mock.RecordService{
			FindProvincesFn: func(_ context.Context) ([]sapnhap.AdministrativeUnit, error) {
				return nil, errors.New("disk on fire")
			},
		}

		rec := serve(t, sapnhaphttp.NewHandler(records, nil), "/provinces")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal error.", decodeError(t, rec))
	})
}

func TestHandler_Communes(t *testing.T) {
	t.Parallel()

	t.Run("lists communes of the province", func(t *testing.T) {
		t.Parallel()

		var gotCode string
		records := &mock.RecordService{
			FindCommunesFn: func(_ context.Context, code string) ([]sapnhap.AdministrativeUnit, error) {
				gotCode = code
				return []sapnhap.AdministrativeUnit{{Code: "29242", Name: "Phường 1"}}, nil
			},
		}

		rec := serve(t, sapnhaphttp.NewHandler(records, nil), "/communes?province=83")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "83", gotCode)
	})

	t.Run("requires province parameter", func(t *testing.T) {
		t.Parallel()

		rec := serve(t, sapnhaphttp.NewHandler(&mock.RecordService{}, nil), "/communes")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec), "province")
	})
}

func TestHandler_Lookup(t *testing.T) {
	t.Parallel()

	t.Run("passes query parameters as filter", func(t *testing.T) {
		t.Parallel()

		var got sapnhap.RecordFilter
		records := &mock.RecordService{
			FindRecordsFn: func(_ context.Context, filter sapnhap.RecordFilter) ([]*sapnhap.MergerRecord, error) {
				got = filter
				return []*sapnhap.MergerRecord{{ProvinceCode: "83", CommuneCode: "29242", Before: "Phường 1"}}, nil
			},
		}

		rec := serve(t, sapnhaphttp.NewHandler(records, nil), "/lookup?province=83&before=ph%C6%B0%E1%BB%9Dng&limit=5")

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got.ProvinceCode)
		assert.Equal(t, "83", *got.ProvinceCode)
		require.NotNil(t, got.Before)
		assert.Equal(t, "phường", *got.Before)
		assert.Nil(t, got.CommuneCode)
		assert.Equal(t, 5, got.Limit)
	})

	t.Run("applies default limit", func(t *testing.T) {
		t.Parallel()

		var got sapnhap.RecordFilter
		records := &mock.RecordService{
			FindRecordsFn: func(_ context.Context, filter sapnhap.RecordFilter) ([]*sapnhap.MergerRecord, error) {
				got = filter
				return []*sapnhap.MergerRecord{{ProvinceCode: "83"}}, nil
			},
		}

		serve(t, sapnhaphttp.NewHandler(records, nil), "/lookup?commune_name=t%C3%A2n")

		assert.Equal(t, sapnhaphttp.DefaultLookupLimit, got.Limit)
	})

	t.Run("returns 404 when nothing matches", func(t *testing.T) {
		t.Parallel()

		records := &mock.RecordService{
			FindRecordsFn: func(_ context.Context, _ sapnhap.RecordFilter) ([]*sapnhap.MergerRecord, error) {
				return nil, nil
			},
		}

		rec := serve(t, sapnhaphttp.NewHandler(records, nil), "/lookup?province=99")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, decodeError(t, rec))
	})

	t.Run("rejects lookup without filters", func(t *testing.T) {
		t.Parallel()

		rec := serve(t, sapnhaphttp.NewHandler(&mock.RecordService{}, nil), "/lookup")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid limit", func(t *testing.T) {
		t.Parallel()

		rec := serve(t, sapnhaphttp.NewHandler(&mock.RecordService{}, nil), "/lookup?province=01&limit=abc")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_RejectsOtherMethods(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	sapnhaphttp.NewHandler(&mock.RecordService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/provinces", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
