// Package memsize implements the memory-sizing step of Phase A (spec
// §4.6 step 5): parse the host's `free` output, then derive SGA_TARGET
// and PGA_TARGET from configured percentages of available memory,
// enforcing the 4 GiB minimum-available and 2 GiB/1 GiB floors.
package memsize
