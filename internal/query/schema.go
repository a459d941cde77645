package query

// ColumnType is the declared type of an entity column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInteger
	TypeBoolean
	TypeDecimal
	TypeDateTime
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeDecimal:
		return "decimal"
	case TypeDateTime:
		return "datetime"
	default:
		return "string"
	}
}

// Column describes one column of an entity. MaxLength is zero when the
// column has no declared length.
type Column struct {
	Name      string
	Type      ColumnType
	MaxLength int
	Nullable  bool
}

// Null marks the column as nullable. Nullable sort keys order NULL after
// every value.
func (c Column) Null() Column {
	c.Nullable = true
	return c
}

// String declares a string column; maxLength 0 means unbounded (TEXT).
func String(name string, maxLength int) Column {
	return Column{Name: name, Type: TypeString, MaxLength: maxLength}
}

// Integer declares an integer column.
func Integer(name string) Column { return Column{Name: name, Type: TypeInteger} }

// Boolean declares a boolean column.
func Boolean(name string) Column { return Column{Name: name, Type: TypeBoolean} }

// Decimal declares a fixed-point decimal column.
func Decimal(name string) Column { return Column{Name: name, Type: TypeDecimal} }

// DateTime declares a timestamp column.
func DateTime(name string) Column { return Column{Name: name, Type: TypeDateTime} }

// Schema is the column layout of an entity's table.
type Schema struct {
	Table   string
	Columns []Column

	// DefaultSortKeys overrides DefaultSortKeys for this entity when set.
	DefaultSortKeys []string

	index map[string]int
}

// NewSchema builds a Schema for table with the given columns in order.
func NewSchema(table string, columns ...Column) *Schema {
	s := &Schema{Table: table, Columns: columns, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		s.index[c.Name] = i
	}
	return s
}

// WithDefaultSortKeys sets the keys always appended to an ordering.
func (s *Schema) WithDefaultSortKeys(keys ...string) *Schema {
	s.DefaultSortKeys = keys
	return s
}

// Column looks up a column by name.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.Columns[i], true
}

// Has reports whether the schema has a column called name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// ColumnNames returns the column names in declaration order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// SortDefaults returns the keys appended to every ordering of the entity.
func (s *Schema) SortDefaults() []string {
	if s.DefaultSortKeys != nil {
		return s.DefaultSortKeys
	}
	return DefaultSortKeys
}
