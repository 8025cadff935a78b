package mcts

import (
	"math"
	"math/rand/v2"

	"github.com/lox/ofcsolver/internal/game"
)

// node is one tree node, stored in a flat arena and linked by index. A node
// is a chance node when the player to act there draws from the undealt pile,
// in which case selection samples children uniformly instead of by UCB1.
type node struct {
	pos      *game.Position
	move     game.Move
	parent   int32
	children []int32
	untried  []game.Move
	visits   int64
	total    float64
	total2   float64
	chance   bool
}

// tree is a single worker's search tree. All values are backpropagated from
// the hero's perspective.
type tree struct {
	nodes []node
	hero  string
}

func newTree(pos *game.Position) *tree {
	t := &tree{hero: pos.ToAct()}
	t.nodes = append(t.nodes, node{
		pos:     pos,
		parent:  -1,
		untried: pos.LegalMoves(),
	})
	return t
}

// iterate runs one selection, expansion, rollout and backpropagation pass.
func (t *tree) iterate(rng *rand.Rand, s *Simulator) {
	idx := int32(0)
	for {
		n := &t.nodes[idx]
		if n.pos.Complete() {
			break
		}
		if len(n.untried) > 0 {
			idx = t.expand(idx, rng)
			break
		}
		if len(n.children) == 0 {
			break
		}
		if n.chance {
			idx = n.children[rng.IntN(len(n.children))]
		} else {
			idx = t.bestChild(idx, s.cfg.Exploration)
		}
	}

	value := s.rollout(t.nodes[idx].pos, t.hero, rng)
	for i := idx; i >= 0; i = t.nodes[i].parent {
		t.nodes[i].visits++
		t.nodes[i].total += value
		t.nodes[i].total2 += value * value
	}
}

// expand removes a random untried move and adds the resulting child.
func (t *tree) expand(idx int32, rng *rand.Rand) int32 {
	n := &t.nodes[idx]
	k := rng.IntN(len(n.untried))
	m := n.untried[k]
	n.untried[k] = n.untried[len(n.untried)-1]
	n.untried = n.untried[:len(n.untried)-1]

	child, err := n.pos.Apply(m)
	if err != nil {
		return idx
	}

	childIdx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{
		pos:     child,
		move:    m,
		parent:  idx,
		untried: child.LegalMoves(),
		chance:  !child.Complete() && len(child.ActingHand().Pool) == 0,
	})
	t.nodes[idx].children = append(t.nodes[idx].children, childIdx)
	return childIdx
}

// bestChild applies UCB1 from the perspective of the player to act at the
// node: opponents of the hero invert the exploitation term.
func (t *tree) bestChild(idx int32, exploration float64) int32 {
	n := t.nodes[idx]
	maximizing := n.pos.ToAct() == t.hero
	logN := math.Log(float64(n.visits) + 1)

	best := n.children[0]
	bestScore := math.Inf(-1)
	for _, ci := range n.children {
		ch := t.nodes[ci]
		if ch.visits == 0 {
			return ci
		}
		exploit := ch.total / float64(ch.visits)
		if !maximizing {
			exploit = -exploit
		}
		score := exploit + exploration*math.Sqrt(logN/float64(ch.visits))
		if score > bestScore {
			bestScore = score
			best = ci
		}
	}
	return best
}

// rootBest returns the most visited root move, its expected value and its
// visit count.
func (t *tree) rootBest() (game.Move, float64, int64, bool) {
	root := t.nodes[0]
	var (
		best      game.Move
		bestV     int64 = -1
		bestEV    float64
		foundAny  bool
		tieString string
	)
	for _, ci := range root.children {
		ch := t.nodes[ci]
		if ch.visits == 0 {
			continue
		}
		s := ch.move.String()
		if ch.visits > bestV || (ch.visits == bestV && s < tieString) {
			best = ch.move
			bestV = ch.visits
			bestEV = ch.total / float64(ch.visits)
			tieString = s
			foundAny = true
		}
	}
	return best, bestEV, bestV, foundAny
}
