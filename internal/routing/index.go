package routing

import "fmt"

// IndexManager maps problem nodes to routing indices. Nodes that are no
// vehicle terminal come first in node order, then one start index and one end
// index per vehicle. A node used as a vehicle end has no index of its own.
type IndexManager struct {
	numNodes    int
	numVehicles int
	indexToNode []int
	nodeToIndex []int64
	starts      []int64
	ends        []int64
}

// NewIndexManager builds the index space for vehicles starting and ending at the given nodes.
func NewIndexManager(numNodes, numVehicles int, starts, ends []int) (*IndexManager, error) {
	if len(starts) != numVehicles || len(ends) != numVehicles {
		return nil, fmt.Errorf("routing: %d vehicles but %d starts and %d ends", numVehicles, len(starts), len(ends))
	}
	terminal := make([]bool, numNodes)
	for v := 0; v < numVehicles; v++ {
		for _, n := range []int{starts[v], ends[v]} {
			if n < 0 || n >= numNodes {
				return nil, fmt.Errorf("routing: vehicle %d terminal node %d out of range [0,%d)", v, n, numNodes)
			}
			terminal[n] = true
		}
	}
	m := &IndexManager{
		numNodes:    numNodes,
		numVehicles: numVehicles,
		nodeToIndex: make([]int64, numNodes),
		starts:      make([]int64, numVehicles),
		ends:        make([]int64, numVehicles),
	}
	for n := 0; n < numNodes; n++ {
		if terminal[n] {
			m.nodeToIndex[n] = -1
			continue
		}
		m.nodeToIndex[n] = int64(len(m.indexToNode))
		m.indexToNode = append(m.indexToNode, n)
	}
	for v, n := range starts {
		m.starts[v] = int64(len(m.indexToNode))
		m.indexToNode = append(m.indexToNode, n)
		if m.nodeToIndex[n] < 0 {
			m.nodeToIndex[n] = m.starts[v]
		}
	}
	for v, n := range ends {
		m.ends[v] = int64(len(m.indexToNode))
		m.indexToNode = append(m.indexToNode, n)
	}
	return m, nil
}

// NodeToIndex returns the index of node, or -1 when the node is only a vehicle end.
func (m *IndexManager) NodeToIndex(node int) int64 {
	if node < 0 || node >= m.numNodes {
		return -1
	}
	return m.nodeToIndex[node]
}

// IndexToNode returns the node behind an index.
func (m *IndexManager) IndexToNode(index int64) int { return m.indexToNode[index] }

// Size is the number of routing indices.
func (m *IndexManager) Size() int { return len(m.indexToNode) }

// NumNodes returns the number of problem nodes.
func (m *IndexManager) NumNodes() int { return m.numNodes }

// NumVehicles returns the number of vehicles.
func (m *IndexManager) NumVehicles() int { return m.numVehicles }

// StartIndex returns the start index of a vehicle.
func (m *IndexManager) StartIndex(vehicle int) int64 { return m.starts[vehicle] }

// EndIndex returns the end index of a vehicle.
func (m *IndexManager) EndIndex(vehicle int) int64 { return m.ends[vehicle] }
