// Package sleigh implements the table-driven translation core: it
// turns raw instruction bytes into pcode micro-operations or assembly
// text, steered by a parsed specification document.
//
// The package is consumed through three narrow interfaces. LoadImage
// pulls instruction bytes; PcodeEmitter and AsmEmitter push results.
// Callers outside this module normally reach the engine through the
// runtime package, which adapts host callback objects onto these
// interfaces and contains decode faults at the boundary.
package sleigh
