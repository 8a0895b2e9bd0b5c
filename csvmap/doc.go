// Package csvmap maps flat rows, as read from CSV files, spreadsheets or
// SQL cursors, to typed Go values, including nested structs and slices.
//
// A Factory holds shared configuration. From it, a Builder produces a
// Mapper for a fixed column layout, and a DynamicMapper derives the layout
// from each source's header row:
//
//	f, _ := csvmap.NewFactory(csvmap.WithKeys("id", "students_id"))
//	m, _ := csvmap.NewBuilder[Professor](f).
//		AddColumn("id").
//		AddColumn("name").
//		AddColumn("students_id").
//		AddColumn("students_name").
//		Build()
//	err := m.ForEach(ctx, csvsource.New(r), func(p Professor) error { ... })
//
// Column names resolve against struct fields, setter methods, constructor
// parameters and `csv` struct tags. A name such as students_name
// addresses the Name property of the elements of Students.
//
// # Joins
//
// Key columns fold consecutive rows. While the keys of a level repeat,
// the rows keep contributing to the same entity: its collection properties
// accumulate one element per distinct child key. An entity is emitted
// when its keys change or the stream ends. Rows must be ordered by key;
// keys are only compared with the previous row.
//
// Mappers are immutable and safe for concurrent use.
package csvmap
