package logger

import "time"

// Common field constructors for structured logging

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field in milliseconds
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.Milliseconds()}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// --- Domain-specific field helpers ---

// ContentType creates a content_type field (hajj, umrah, knowledge, ...)
func ContentType(name string) Field {
	return Field{Key: "content_type", Value: name}
}

// RecordID creates a record_id field
func RecordID(id int64) Field {
	return Field{Key: "record_id", Value: id}
}

// RemoteID creates a remote_id field (media store deletion key)
func RemoteID(id string) Field {
	return Field{Key: "remote_id", Value: id}
}

// Folder creates a folder field (media store namespace)
func Folder(folder string) Field {
	return Field{Key: "folder", Value: folder}
}

// Category creates a category field
func Category(category string) Field {
	return Field{Key: "category", Value: category}
}

// Slot creates a slot field (hero or gallery)
func Slot(slot string) Field {
	return Field{Key: "slot", Value: slot}
}

// AdminID creates an admin_id field
func AdminID(id int64) Field {
	return Field{Key: "admin_id", Value: id}
}

// Email creates an email field
func Email(email string) Field {
	return Field{Key: "email", Value: email}
}

// Status creates a status field
func Status(status int) Field {
	return Field{Key: "status", Value: status}
}

// Method creates an HTTP method field
func Method(method string) Field {
	return Field{Key: "method", Value: method}
}

// Path creates an HTTP path field
func Path(path string) Field {
	return Field{Key: "path", Value: path}
}

// RemoteIP creates a remote_ip field
func RemoteIP(ip string) Field {
	return Field{Key: "remote_ip", Value: ip}
}

// Operation creates an operation field
func Operation(op string) Field {
	return Field{Key: "operation", Value: op}
}

// Count creates a count field
func Count(count int) Field {
	return Field{Key: "count", Value: count}
}
