package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/sapnhap"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ sapnhap.RecordService = (*RecordService)(nil)

// RecordService implements sapnhap.RecordService using SQLite.
type RecordService struct {
	db *DB

	// Now returns the time stored as updated_at. Defaults to time.Now.
	Now func() time.Time
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db, Now: time.Now}
}

// hashRecord computes the xxHash of the record's report row and returns it
// as a hex string.
func hashRecord(r *sapnhap.MergerRecord) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(strings.Join(r.Row(), "\x1f")))
	return hex.EncodeToString(b[:])
}

// CreateRecords stores records in one transaction. A record replaces the
// stored record of the same unit unless their content is identical.
func (s *RecordService) CreateRecords(ctx context.Context, records []*sapnhap.MergerRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (
			id, province_code, province_name, commune_code, commune_name, level, source_url,
			before_text, after_text, details, change_count, has_info,
			search_province, search_commune, search_before, content_hash, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (province_code, commune_code) DO UPDATE SET
			province_name = excluded.province_name,
			commune_name = excluded.commune_name,
			level = excluded.level,
			source_url = excluded.source_url,
			before_text = excluded.before_text,
			after_text = excluded.after_text,
			details = excluded.details,
			change_count = excluded.change_count,
			has_info = excluded.has_info,
			search_province = excluded.search_province,
			search_commune = excluded.search_commune,
			search_before = excluded.search_before,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
		WHERE records.content_hash <> excluded.content_hash
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := s.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), r.ProvinceCode, r.ProvinceName, r.CommuneCode, r.CommuneName, string(r.Level), r.SourceURL,
			r.Before, r.After, r.DetailsJSON(), r.ChangeCount, r.HasInfo,
			strings.ToLower(r.ProvinceName), strings.ToLower(r.CommuneName), strings.ToLower(r.Before),
			hashRecord(r), now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindRecords retrieves records matching the filter.
func (s *RecordService) FindRecords(ctx context.Context, filter sapnhap.RecordFilter) ([]*sapnhap.MergerRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT province_code, province_name, commune_code, commune_name, level, source_url,
		before_text, after_text, details FROM records WHERE 1=1`)

	if filter.ProvinceCode != nil {
		query.WriteString(" AND province_code = ?")
		args = append(args, *filter.ProvinceCode)
	}
	if filter.CommuneCode != nil {
		query.WriteString(" AND commune_code = ?")
		args = append(args, *filter.CommuneCode)
	}
	appendContains(&query, &args, "search_province", filter.ProvinceName)
	appendContains(&query, &args, "search_commune", filter.CommuneName)
	appendContains(&query, &args, "search_before", filter.Before)
	if filter.HasInfo != nil {
		query.WriteString(" AND has_info = ?")
		args = append(args, *filter.HasInfo)
	}

	query.WriteString(" ORDER BY province_code, commune_code")

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*sapnhap.MergerRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// FindProvinces returns the provinces with stored records ordered by name.
func (s *RecordService) FindProvinces(ctx context.Context) ([]sapnhap.AdministrativeUnit, error) {
	return s.findUnits(ctx, `
		SELECT province_code, MAX(province_name), '' FROM records
		GROUP BY province_code
		ORDER BY MAX(province_name), province_code
	`, sapnhap.LevelProvince)
}

// FindCommunes returns the communes of a province with stored records
// ordered by name.
func (s *RecordService) FindCommunes(ctx context.Context, provinceCode string) ([]sapnhap.AdministrativeUnit, error) {
	return s.findUnits(ctx, `
		SELECT commune_code, commune_name, province_code FROM records
		WHERE province_code = ? AND commune_code <> ''
		ORDER BY commune_name, commune_code
	`, sapnhap.LevelCommune, provinceCode)
}

func (s *RecordService) findUnits(ctx context.Context, query string, level sapnhap.Level, args ...any) ([]sapnhap.AdministrativeUnit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []sapnhap.AdministrativeUnit{}
	for rows.Next() {
		u := sapnhap.AdministrativeUnit{Level: level}
		if err := rows.Scan(&u.Code, &u.Name, &u.ParentCode); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// scanRecord rebuilds a record from a row, deriving the count and flag
// from the stored content.
func scanRecord(rows *sql.Rows) (*sapnhap.MergerRecord, error) {
	var province sapnhap.AdministrativeUnit
	var communeCode, communeName, level, sourceURL, details string
	var info sapnhap.MergerInfo

	if err := rows.Scan(&province.Code, &province.Name, &communeCode, &communeName, &level, &sourceURL,
		&info.Before, &info.After, &details); err != nil {
		return nil, err
	}
	pairs, err := sapnhap.ParseDetailsJSON(details)
	if err != nil {
		return nil, err
	}
	info.Details = pairs
	province.Level = sapnhap.LevelProvince

	var commune *sapnhap.AdministrativeUnit
	if sapnhap.ParseLevel(level) == sapnhap.LevelCommune {
		commune = &sapnhap.AdministrativeUnit{Code: communeCode, Name: communeName, Level: sapnhap.LevelCommune, ParentCode: province.Code}
	}
	return sapnhap.NewMergerRecord(province, commune, sourceURL, &info), nil
}
