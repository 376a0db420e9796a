// Package sapnhap retrieves administrative-boundary merger records
// (pre- and post-merger addresses for provinces and communes) from a public
// legal-reference website and persists them as spreadsheet reports.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, excelize/, sqlite/).
package sapnhap
