package auth

import (
	"hash/crc32"
	"slices"
	"strconv"
	"sync"
)

// ConsistentHashRing 一致性哈希环，token 缓存 key 按节点分片
type ConsistentHashRing struct {
	mu       sync.RWMutex
	replicas int
	points   []uint32 // 已排序的虚拟节点
	owner    map[uint32]string
	nodes    map[string]struct{}
}

// NewConsistentHashRing nodes 为空时放一个默认节点
func NewConsistentHashRing(nodes []string, replicas int) *ConsistentHashRing {
	if replicas <= 0 {
		replicas = 50
	}
	if len(nodes) == 0 {
		nodes = []string{"auth-node-default"}
	}
	r := &ConsistentHashRing{
		replicas: replicas,
		owner:    make(map[uint32]string),
		nodes:    make(map[string]struct{}),
	}
	r.Add(nodes...)
	return r
}

func virtualPoint(node string, i int) uint32 {
	return crc32.ChecksumIEEE([]byte(node + "#" + strconv.Itoa(i)))
}

// Add 添加节点，已存在的忽略
func (r *ConsistentHashRing) Add(nodes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, node := range nodes {
		if _, ok := r.nodes[node]; ok {
			continue
		}
		r.nodes[node] = struct{}{}
		for i := 0; i < r.replicas; i++ {
			p := virtualPoint(node, i)
			r.points = append(r.points, p)
			r.owner[p] = node
		}
	}
	slices.Sort(r.points)
}

// Remove 摘除节点，其 key 落到环上的下一个节点
func (r *ConsistentHashRing) Remove(node string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.nodes[node]; !ok {
		return
	}
	delete(r.nodes, node)
	kept := r.points[:0]
	for _, p := range r.points {
		if r.owner[p] == node {
			delete(r.owner, p)
			continue
		}
		kept = append(kept, p)
	}
	r.points = kept
}

// GetNode 返回负责 key 的节点，环为空时返回 ""
func (r *ConsistentHashRing) GetNode(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.points) == 0 {
		return ""
	}
	h := crc32.ChecksumIEEE([]byte(key))
	idx, _ := slices.BinarySearch(r.points, h)
	if idx == len(r.points) {
		idx = 0
	}
	return r.owner[r.points[idx]]
}
