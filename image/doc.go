// Package image loads and saves BES2300 firmware images.
//
// # Supported Formats
//
// Raw binaries (.bin or any other extension) have no addresses of their own
// and are placed at a caller supplied base, usually the flash base
// 0x3C000000. Intel HEX files (.hex, .ihex) carry addresses per record; the
// records are merged into contiguous segments.
//
// # Usage
//
//	img, err := image.Load("best2300.hex", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range img.Segments {
//	    fmt.Printf("0x%08X: %d bytes\n", s.Address, len(s.Data))
//	}
//
// Flash read back from a chip is saved with Save, which picks the format from
// the file name:
//
//	err := image.Save("dump.hex", 0x3C000000, data)
package image
