// Package linuxspi talks to a Linux spidev character device directly
// through ioctl, without going through a host abstraction layer such as
// periph.io. It is the backend ninawire/bus uses by default on Linux.
package linuxspi

import (
	ioctl "github.com/daedaluz/goioctl"
	"reflect"
	"syscall"
	"unsafe"
)

const spiIOCMagic = 'k'

type spiIOCTransfer struct {
	txBuf uint64
	rxBuf uint64

	len     uint32
	speedHz uint32

	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNBits        uint8
	rxNBits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

var (
	spiIOCWRBits     = ioctl.IOW(spiIOCMagic, 3, 1)
	spiIOCWRMaxSpeed = ioctl.IOW(spiIOCMagic, 4, 4)
	spiIOCWRMode32   = ioctl.IOW(spiIOCMagic, 5, 4)

	spiIOCMessage = ioctl.IOW(spiIOCMagic, 0, unsafe.Sizeof(spiIOCTransfer{}))
)

// Mode selects the SPI clock polarity/phase. The coprocessor this
// package was written for runs Mode0.
type Mode uint32

const (
	Mode0 Mode = 0x0
	Mode1 Mode = 0x1
	Mode2 Mode = 0x2
	Mode3 Mode = 0x3
)

// Config describes how to open and drive the spidev node.
type Config struct {
	Mode      Mode
	Bits      uint8
	Speed     uint32
	DelayUsec uint16
}

// Device is a single spidev character device, opened for exclusive use.
type Device struct {
	fd  int
	cfg *Config
}

// Open opens the spidev node at path and programs its mode, speed, and
// word size via ioctl.
func Open(path string, cfg *Config) (*Device, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if err := ioctl.Ioctl(fd, spiIOCWRMaxSpeed, uintptr(unsafe.Pointer(&cfg.Speed))); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	if err := ioctl.Ioctl(fd, spiIOCWRBits, uintptr(unsafe.Pointer(&cfg.Bits))); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	mode := cfg.Mode
	if err := ioctl.Ioctl(fd, spiIOCWRMode32, uintptr(unsafe.Pointer(&mode))); err != nil {
		syscall.Close(fd)
		return nil, err
	}

	return &Device{fd: fd, cfg: cfg}, nil
}

// Tx performs a full-duplex transfer: data is transmitted on MOSI while
// an equal number of bytes are captured from MISO into a newly allocated
// slice, which is returned. data itself is left unchanged.
func (d *Device) Tx(data []byte) ([]byte, error) {
	read := make([]byte, len(data))

	dataHeader := (*reflect.SliceHeader)(unsafe.Pointer(&data))
	readHeader := (*reflect.SliceHeader)(unsafe.Pointer(&read))

	xfer := &spiIOCTransfer{
		txBuf:       uint64(dataHeader.Data),
		rxBuf:       uint64(readHeader.Data),
		len:         uint32(dataHeader.Len),
		speedHz:     d.cfg.Speed,
		delayUsecs:  d.cfg.DelayUsec,
		bitsPerWord: d.cfg.Bits,
	}
	if err := ioctl.Ioctl(d.fd, spiIOCMessage, uintptr(unsafe.Pointer(xfer))); err != nil {
		return nil, err
	}
	return read, nil
}

// Close releases the underlying file descriptor.
func (d *Device) Close() error {
	return syscall.Close(d.fd)
}
