package uhdf

import (
	"fmt"
	"strings"
)

// splitPath splits a slash separated object path. Leading, trailing and
// repeated slashes are ignored.
func splitPath(p string) ([]string, error) {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q names no object", ErrInvalidPath, p)
	}
	return parts, nil
}

// joinPath appends name to a group path.
func joinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// ParseAttrPath splits an attribute path of the form object@attribute.
//
// Examples:
//   - "/@title" -> "/", "title"
//   - "/data@units" -> "/data", "units"
//   - "geo/lat@scale" -> "/geo/lat", "scale"
func ParseAttrPath(p string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(p, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: %q has no '@' separator", ErrInvalidPath, p)
	}
	objectPath, attrName = p[:at], p[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: %q has an empty attribute name", ErrInvalidPath, p)
	}
	objectPath = "/" + strings.Trim(objectPath, "/")
	return objectPath, attrName, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	if objectPath == "/" {
		return "/@" + attrName
	}
	return objectPath + "@" + attrName
}
