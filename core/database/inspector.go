package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Field string
	Type  string
}

// GetTableColumns returns the columns of table, lower-cased. A missing
// table yields no columns.
func GetTableColumns(db *gorm.DB, table string) ([]ColumnInfo, error) {
	if db.Dialector.Name() == "sqlite" {
		type sqliteColumn struct {
			Name string
			Type string
		}
		var rows []sqliteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", table)).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
		}
		columns := make([]ColumnInfo, len(rows))
		for i, row := range rows {
			columns[i] = ColumnInfo{Field: strings.ToLower(row.Name), Type: strings.ToLower(row.Type)}
		}
		return columns, nil
	}

	if !db.Migrator().HasTable(table) {
		return nil, nil
	}
	var columns []ColumnInfo
	if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", table)).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}
	for i := range columns {
		columns[i].Field = strings.ToLower(columns[i].Field)
		columns[i].Type = strings.ToLower(columns[i].Type)
	}
	return columns, nil
}

// MissingColumns lists the columns of want that table lacks.
func MissingColumns(db *gorm.DB, table string, want []string) ([]string, error) {
	columns, err := GetTableColumns(db, table)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[c.Field] = struct{}{}
	}
	var missing []string
	for _, name := range want {
		if _, ok := have[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
