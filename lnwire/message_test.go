package lnwire

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestNewChanIDFromOutPointXorsIndexIntoLastBytes(t *testing.T) {
	t.Parallel()

	txid := chainhash.Hash{0xaa, 0xbb, 0xcc}
	op := &wire.OutPoint{Hash: txid, Index: 1}

	cid := NewChanIDFromOutPoint(op)
	require.False(t, cid.IsZero())

	var expected ChannelID
	copy(expected[:], txid[:])
	expected[31] ^= 1

	require.Equal(t, expected, cid)
}

func TestChannelIDIsZero(t *testing.T) {
	t.Parallel()

	var zero ChannelID
	require.True(t, zero.IsZero())

	nonZero := NewChanIDFromOutPoint(&wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0})
	require.False(t, nonZero.IsZero())
}

func TestShutdownEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := &Shutdown{
		ChanID:  ChannelID{0x01, 0x02},
		Address: []byte{0x00, 0x14, 0xde, 0xad, 0xbe, 0xef},
	}

	var buf bytes.Buffer
	require.NoError(t, original.Encode(&buf, 0))

	decoded := &Shutdown{}
	require.NoError(t, decoded.Decode(&buf, 0))
	require.Equal(t, original, decoded)
}

func TestClosingSignedEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := &ClosingSigned{
		ChanID:    ChannelID{0x03, 0x04},
		FeeSats:   5000,
		Signature: []byte{0x01, 0x02, 0x03},
	}

	var buf bytes.Buffer
	require.NoError(t, original.Encode(&buf, 0))

	decoded := &ClosingSigned{}
	require.NoError(t, decoded.Decode(&buf, 0))
	require.Equal(t, original, decoded)
}

func TestWriteReadMessageRoundTrip(t *testing.T) {
	t.Parallel()

	original := &Shutdown{
		ChanID:  ChannelID{0x05},
		Address: []byte{0xca, 0xfe},
	}

	var buf bytes.Buffer
	n, err := WriteMessage(&buf, original, 0)
	require.NoError(t, err)
	require.Greater(t, n, 0)

	decoded, err := ReadMessage(&buf, 0)
	require.NoError(t, err)
	require.Equal(t, MsgShutdown, decoded.MsgType())
	require.Equal(t, original, decoded)
}

func TestReadMessageUnknownType(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff})

	_, err := ReadMessage(&buf, 0)
	require.Error(t, err)

	var unknown *UnknownMessage
	require.ErrorAs(t, err, &unknown)
}

func TestWriteMessageRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	original := &Shutdown{
		ChanID:  ChannelID{0x01},
		Address: make([]byte, MaxMessagePayload),
	}

	var buf bytes.Buffer
	_, err := WriteMessage(&buf, original, 0)
	require.Error(t, err)
}
