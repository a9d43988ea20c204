package histogram

import (
	"encoding/binary"
	"fmt"

	"github.com/crimson-sun/tcspc/internal/events"
)

// clusterSizeSentinel marks a size-prefix element that is followed by a
// packed 64-bit size instead of carrying the size itself. Grounded on
// bin_increment_cluster_encoding.hpp's encoded_size_max sentinel, here
// fixed at the max of a uint32 rather than parametrized on BinIndex's
// width since events.BinIndices is a plain []int64.
const clusterSizeSentinel = uint32(0xFFFFFFFF)

// largeSizeElements is how many uint32 elements a packed 64-bit long-mode
// size occupies after the sentinel.
const largeSizeElements = 2

// EncodeBinIncrementCluster encodes a cluster of bin indices into a byte
// buffer using a short-mode size prefix (one uint32) when the cluster is
// small, or a sentinel followed by a packed 64-bit size for large
// clusters. Grounded on bin_increment_cluster_encoding.hpp's
// encode_bin_increment_cluster.
func EncodeBinIncrementCluster(cluster []int64) []byte {
	n := len(cluster)
	var buf []byte
	if uint64(n) < uint64(clusterSizeSentinel) {
		buf = make([]byte, 4+4*n)
		binary.LittleEndian.PutUint32(buf[0:4], uint32(n))
		for i, bin := range cluster {
			binary.LittleEndian.PutUint32(buf[4+4*i:8+4*i], uint32(bin))
		}
		return buf
	}
	buf = make([]byte, 4+4*largeSizeElements+4*n)
	binary.LittleEndian.PutUint32(buf[0:4], clusterSizeSentinel)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(n))
	off := 4 + 4*largeSizeElements
	for i, bin := range cluster {
		binary.LittleEndian.PutUint32(buf[off+4*i:off+4+4*i], uint32(bin))
	}
	return buf
}

// DecodeBinIncrementClusters iterates consecutive encoded clusters out of
// buf, returning the decoded clusters and the number of bytes consumed
// from the start of buf (leaving any trailing partial cluster
// untouched). Grounded on bin_increment_cluster_encoding.hpp's
// bin_increment_cluster_decoder::const_iterator.
func DecodeBinIncrementClusters(buf []byte) (clusters [][]int64, consumed int, err error) {
	for {
		n, size, hdrErr := clusterHeader(buf[consumed:])
		if hdrErr != nil {
			break
		}
		end := consumed + size + 4*n
		if end > len(buf) {
			break
		}
		cluster := make([]int64, n)
		elems := buf[consumed+size : end]
		for i := 0; i < n; i++ {
			cluster[i] = int64(int32(binary.LittleEndian.Uint32(elems[4*i : 4*i+4])))
		}
		clusters = append(clusters, cluster)
		consumed = end
	}
	return clusters, consumed, nil
}

// clusterHeader reads one cluster's size prefix from the front of buf,
// returning the element count and the number of header bytes (4 for
// short mode, 4+4*largeSizeElements for long mode).
func clusterHeader(buf []byte) (n int, headerSize int, err error) {
	if len(buf) < 4 {
		return 0, 0, fmt.Errorf("histogram: truncated cluster header")
	}
	sz := binary.LittleEndian.Uint32(buf[0:4])
	if sz != clusterSizeSentinel {
		return int(sz), 4, nil
	}
	if len(buf) < 4+4*largeSizeElements {
		return 0, 0, fmt.Errorf("histogram: truncated long-mode cluster header")
	}
	big := binary.LittleEndian.Uint64(buf[4:12])
	return int(big), 4 + 4*largeSizeElements, nil
}

type clusterDecoder struct {
	carry      []byte
	downstream Processor
}

// DecodeClusterStream decodes a byte stream of encoded bin increment
// clusters into KindBinIncrementCluster events, carrying any partial
// trailing cluster across calls to HandleChunk.
func DecodeClusterStream(downstream Processor) *clusterDecoder {
	return &clusterDecoder{downstream: downstream}
}

func (d *clusterDecoder) HandleChunk(chunk []byte) error {
	d.carry = append(d.carry, chunk...)
	clusters, consumed, err := DecodeBinIncrementClusters(d.carry)
	if err != nil {
		return wrapf("decode_cluster_stream", err)
	}
	for _, c := range clusters {
		if err := d.downstream.Handle(events.BinIncrementCluster(c)); err != nil {
			return wrapf("decode_cluster_stream", err)
		}
	}
	d.carry = append([]byte(nil), d.carry[consumed:]...)
	return nil
}

func (d *clusterDecoder) Flush() error {
	if len(d.carry) != 0 {
		return fmt.Errorf("decode_cluster_stream: %d leftover bytes at flush", len(d.carry))
	}
	return wrapf("decode_cluster_stream", d.downstream.Flush())
}
