package core

// DefaultColumns returns the column set a fresh store starts with.
func DefaultColumns() []Column {
	return []Column{
		{ID: "name", Label: "Name", Type: ColumnText, Visible: true, Sortable: true, Editable: true, Required: true},
		{ID: "email", Label: "Email", Type: ColumnEmail, Visible: true, Sortable: true, Editable: true, Required: true},
		{ID: "age", Label: "Age", Type: ColumnNumber, Visible: true, Sortable: true, Editable: true},
		{ID: "role", Label: "Role", Type: ColumnText, Visible: true, Sortable: true, Editable: true},
		{ID: "department", Label: "Department", Type: ColumnText, Visible: false, Sortable: true, Editable: true},
		{ID: "location", Label: "Location", Type: ColumnText, Visible: false, Sortable: true, Editable: true},
	}
}

// SampleRows returns the demo rows used to seed an empty store.
func SampleRows() []Row {
	person := func(id, name, email string, age float64, role string) Row {
		return Row{ID: id, Fields: map[string]Value{
			"name":  StringValue(name),
			"email": StringValue(email),
			"age":   NumberValue(age),
			"role":  StringValue(role),
		}}
	}
	return []Row{
		person("1", "John Doe", "john@example.com", 30, "Developer"),
		person("2", "Jane Smith", "jane@example.com", 28, "Designer"),
		person("3", "Bob Johnson", "bob@example.com", 35, "Manager"),
		person("4", "Alice Brown", "alice@example.com", 32, "Developer"),
		person("5", "Charlie Davis", "charlie@example.com", 29, "Analyst"),
	}
}
