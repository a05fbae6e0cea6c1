// Package beslink provides a high-level API for reprogramming BES2300 chips
// over UART.
//
// # Overview
//
// A Session drives the bootloader conversation in three stages:
//   - Syncing with the mask ROM at the initial baud rate
//   - Uploading and starting the programmer agent, which switches the link
//     to the programming baud rate
//   - Burning, reading and erasing flash through the programmer
//
// # Basic Usage
//
//	// User provides the transport (io.ReadWriter + SetBaudRate)
//	port, err := serialport.Open("/dev/ttyUSB0", protocol.DefaultInitialBaudRate, 10*time.Millisecond)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	sess := beslink.New(port)
//
//	blob, _ := os.ReadFile("programmer2300.bin")
//	if err := sess.SyncAndLoadProgrammer(ctx, blob); err != nil {
//	    log.Fatal(err)
//	}
//
//	img, _ := image.Load("best2300.bin", 0x3C000000)
//	if err := sess.Program(ctx, img); err != nil {
//	    log.Fatal(err)
//	}
//
// Put the chip into boot mode (or reset it) after calling SyncAndLoadProgrammer;
// Sync keeps sending handshake frames until the boot ROM answers.
//
// # Configuration Options
//
//	sess := beslink.New(port,
//	    beslink.WithProgressCallback(progressFunc),
//	    beslink.WithLogger(myLogger),
//	    beslink.WithSyncTimeout(30*time.Second),
//	    beslink.WithChunkSize(0x4000),
//	    beslink.WithChecksumPolicy(protocol.ChecksumStrict),
//	    beslink.WithVerifyAfterBurn(true),
//	)
//
// # Error Handling
//
// Failures are typed and can be matched with errors.As:
//
//	var te *beslink.TransferError
//	if errors.As(err, &te) {
//	    fmt.Printf("%s failed at 0x%08X\n", te.Op, te.Address)
//	}
//
//	var se *protocol.StatusError
//	if errors.As(err, &se) {
//	    fmt.Printf("device status 0x%02X\n", se.StatusCode)
//	}
//
// A flash transfer that fails is not resumed; the caller restarts it.
//
// # Thread Safety
//
// A Session is owned by one goroutine. All operations block until the
// device answers, the context is done or the transport fails.
package beslink
