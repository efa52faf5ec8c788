// Package gatt implements a Bluetooth Low Energy ATT/GATT host: an
// attribute database, a server-side ATT protocol engine, and a thin
// client (central) state machine, driven over a pluggable transport.
//
// STATUS
//
// Both roles are implemented: build a Database and Serve it as a
// peripheral, or use a ClientTransport with Scanner and Central to
// discover and talk to one.
//
// TRANSPORTS
//
// LinuxServerTransport/LinuxClientTransport implement both
// ServerTransport and ClientTransport over a kernel HCI socket (see the
// linux subpackage). The integrated subpackage wraps a character-device
// ioctl interface for an integrated BLE stack and provides only a
// ServerTransport. The engine itself depends only on the transport.go
// contracts, not on which transport is in use.
//
// SETUP (Linux socket transport)
//
// The socket transport gains complete and exclusive control of the
// HCI device using HCI_CHANNEL_USER (introduced in Linux v3.14),
// falling back to HCI_CHANNEL_RAW on older kernels. Once opened, no
// other program may access the device; if BlueZ's own bluetooth
// service is running it should be stopped first:
//
//	sudo hciconfig hci0 down
//	sudo service bluetooth stop
//
// Because it administers a network device, a program using this
// transport must run as root or hold CAP_NET_ADMIN:
//
//	sudo setcap 'CAP_NET_ADMIN=+ep' <executable>
//
// USAGE
//
// A peripheral registers services on a Database, wraps a transport in
// a Server, and serves:
//
//	db := gatt.NewDatabase("my-device")
//	svc := gatt.NewService(gatt.MustParseUUID("09fc95c0-c111-11e3-9904-0002a5d5c51b"))
//
//	count := 0
//	rchar := svc.AddCharacteristic(gatt.MustParseUUID("11fac9e0-c111-11e3-9246-0002a5d5c51b"))
//	rchar.HandleReadFunc(func(resp gatt.ReadResponseWriter, req *gatt.ReadRequest) {
//		fmt.Fprintf(resp, "count: %d", count)
//		count++
//	})
//
//	wchar := svc.AddCharacteristic(gatt.MustParseUUID("16fe0d80-c111-11e3-b8c8-0002a5d5c51b"))
//	wchar.HandleWriteFunc(func(req *gatt.WriteRequest) gatt.AttError {
//		log.Println("wrote:", string(req.Data))
//		return 0
//	})
//
//	nchar := svc.AddCharacteristic(gatt.MustParseUUID("1c927b50-c116-11e3-8a33-0800200c9a66"))
//	nchar.HandleNotifyFunc(func(connHandle uint16, n gatt.Notifier) {
//		for i := 0; !n.Done(); i++ {
//			fmt.Fprintf(n, "tick %d", i)
//			time.Sleep(time.Second)
//		}
//	})
//
//	if err := db.RegisterServices(svc); err != nil {
//		log.Fatal(err)
//	}
//
//	transport, err := gatt.NewLinuxServerTransport(-1, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	srv := gatt.NewServer(db, transport, gatt.DeviceName("my-device"))
//	log.Fatal(srv.Serve(nil))
//
// A central scans, connects, and drives a Central over the resulting
// ConnId:
//
//	transport, err := gatt.NewLinuxClientTransport(1)
//	scanner := gatt.NewScanner(transport, gatt.DedupSoftware)
//	scanner.Start(true)
//	defer scanner.Close()
//	results, _ := scanner.GetAdvertisements(2 * time.Second)
//
//	conn, err := transport.Connect(gatt.ConnectParams{Address: results[0].Address})
//	c := gatt.NewCentral(transport, conn)
//	svcs, err := c.DiscoverPrimaryServices()
//
// REFERENCES
//
// gatt started life as a port of bleno, to which it is indebted:
// https://github.com/sandeepmistry/bleno.
//
// Note that some BLE central devices, particularly iOS, aggressively
// cache results from previous connections. If you change your
// services or characteristics, you may need to reboot the other
// device to pick up the changes.
package gatt
