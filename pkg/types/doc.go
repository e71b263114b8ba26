// Package types defines the core types and interfaces used throughout
// toolbelt. This includes the FS filesystem interface and the ToolSpec
// and ToolAlias identities consumed by the storage engine.
package types
