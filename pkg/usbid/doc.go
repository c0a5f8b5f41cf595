// Package usbid resolves USB vendor and product identifiers to the
// names registered in the usb.ids database.
//
// The database is the flat file published by the USB Implementers
// Forum and installed by most Linux distributions under /usr/share.
// On systems without a copy, lookups return empty strings and callers
// fall back to printing raw identifiers.
//
//	db := usbid.New()
//	vendor, product := db.Names(0x046D, 0xC31C)
package usbid
