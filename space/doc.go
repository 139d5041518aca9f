// Package space defines the leaf value types shared across the
// translation boundary: address spaces, addresses, and varnode storage
// descriptors.
//
// Space category tags and their numeric values are a fixed boundary
// contract; both sides of the boundary agree on the mapping rather than
// assuming a shared enumeration layout.
package space
