// Package mapping provides the YAML column configuration file: parsing,
// defaults, validation and compilation into column definitions.
//
// # Schema Overview
//
//	version: "1"
//	date_format: "2006-01-02"       # default layout for time columns
//	time_zone: UTC                  # default location for time columns
//	match: normalized               # normalized | case_insensitive | exact
//	keys: [id, students_id]         # join keys, string or list
//	columns:
//	  - name: students_id
//	    key: true
//	    key_scope: top              # any (default) | top
//	  - name: born
//	    rename: birth_date
//	    date_format: "02/01/2006"
//	    time_zone: UTC
//	  - name: internal
//	    ignore: true
//
// Column entries are matched by column name. Settings of a column entry
// override the file-level defaults.
package mapping
