package lnwire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// writeElement serializes a single field using the fixed-width wire
// encoding BOLT-2 mandates for the types the core's messages use. It
// mirrors the teacher's readElements/writeElements dispatch-by-type
// helper rather than relying on reflection-based encoding.
func writeElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint8:
		return binary.Write(w, binary.BigEndian, e)
	case uint16:
		return binary.Write(w, binary.BigEndian, e)
	case uint32:
		return binary.Write(w, binary.BigEndian, e)
	case uint64:
		return binary.Write(w, binary.BigEndian, e)
	case MilliSatoshi:
		return binary.Write(w, binary.BigEndian, uint64(e))
	case bool:
		var b uint8
		if e {
			b = 1
		}
		return binary.Write(w, binary.BigEndian, b)
	case ChannelID:
		_, err := w.Write(e[:])
		return err
	case [32]byte:
		_, err := w.Write(e[:])
		return err
	case []byte:
		if len(e) > 65535 {
			return fmt.Errorf("byte slice too long: %d", len(e))
		}
		if err := binary.Write(w, binary.BigEndian, uint16(len(e))); err != nil {
			return err
		}
		_, err := w.Write(e)
		return err
	case *btcec.PublicKey:
		if e == nil {
			return fmt.Errorf("cannot write nil public key")
		}
		_, err := w.Write(e.SerializeCompressed())
		return err
	default:
		return fmt.Errorf("unsupported lnwire encode type: %T", element)
	}
}

func writeElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		if err := writeElement(w, element); err != nil {
			return err
		}
	}
	return nil
}

func readElement(r io.Reader, element interface{}) error {
	switch e := element.(type) {
	case *uint8:
		return binary.Read(r, binary.BigEndian, e)
	case *uint16:
		return binary.Read(r, binary.BigEndian, e)
	case *uint32:
		return binary.Read(r, binary.BigEndian, e)
	case *uint64:
		return binary.Read(r, binary.BigEndian, e)
	case *MilliSatoshi:
		var v uint64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
		*e = MilliSatoshi(v)
		return nil
	case *bool:
		var b uint8
		if err := binary.Read(r, binary.BigEndian, &b); err != nil {
			return err
		}
		*e = b != 0
		return nil
	case *ChannelID:
		_, err := io.ReadFull(r, e[:])
		return err
	case *[32]byte:
		_, err := io.ReadFull(r, e[:])
		return err
	case *[]byte:
		var length uint16
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return err
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return err
		}
		*e = buf
		return nil
	case **btcec.PublicKey:
		var buf [33]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		pub, err := btcec.ParsePubKey(buf[:])
		if err != nil {
			return err
		}
		*e = pub
		return nil
	default:
		return fmt.Errorf("unsupported lnwire decode type: %T", element)
	}
}

func readElements(r io.Reader, elements ...interface{}) error {
	for _, element := range elements {
		if err := readElement(r, element); err != nil {
			return err
		}
	}
	return nil
}
