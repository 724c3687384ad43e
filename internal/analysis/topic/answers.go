package topic

const arrayAnswer = `🎯 **Arrays Overview**
An array stores elements in contiguous memory, so any index is reachable in constant time.

📊 **Complexity Analysis**
**Access:** O(1) via direct indexing
**Search:** O(n) linear scan, O(log n) with binary search on sorted data
**Insertion:** O(n) because later elements shift right
**Deletion:** O(n) because later elements shift left

🏗️ **Core Operations**
- **Access:** arr[i] reads the element at offset i
- **Search:** walk the elements until the target is found
- **Insert:** shift the tail right, then write the new value
- **Delete:** shift the tail left over the removed slot

💻 **C++ Implementation**
~~~cpp
#include <iostream>
#include <vector>
using namespace std;

int main() {
    vector<int> arr = {1, 2, 3, 4, 5};

    cout << "Element at index 2: " << arr[2] << endl;

    int target = 3;
    for (int i = 0; i < (int)arr.size(); i++) {
        if (arr[i] == target) {
            cout << "Found at index: " << i << endl;
            break;
        }
    }

    arr.insert(arr.begin() + 2, 10); // {1, 2, 10, 3, 4, 5}
    arr.erase(arr.begin() + 3);      // {1, 2, 10, 4, 5}
    return 0;
}
~~~

🔍 **Example: Insert at Position 2**
Initial: [1, 2, 3, 4, 5]
Shift:   [1, 2, _, 3, 4, 5]
Result:  [1, 2, 10, 3, 4, 5]

🌍 **Real-World Applications**
- Image buffers and matrices
- Lookup tables and caches
- The backing store for stacks, queues and heaps

📝 **Practice Problems**
- Two Sum (Easy)
- Best Time to Buy and Sell Stock (Easy)
- Product of Array Except Self (Medium)

❓ **Interview Tips**
Ask whether the input is sorted, clarify duplicates, and reach for two pointers or a sliding window before nested loops.`

const treeAnswer = `🎯 **Trees Overview**
A tree is a hierarchy of nodes with a single root where every other node has exactly one parent.

📊 **Complexity Analysis (Binary Search Tree)**
**Search:** O(log n) balanced, O(n) degenerate
**Insertion:** O(log n) balanced, O(n) degenerate
**Deletion:** O(log n) balanced, O(n) degenerate
**Space:** O(n) nodes, O(h) recursion depth

🏗️ **Core Traversals**
- **Inorder (Left, Root, Right):** visits a BST in sorted order
- **Preorder (Root, Left, Right):** copies or serializes a tree
- **Postorder (Left, Right, Root):** frees or evaluates a tree
- **Level order:** breadth-first with a queue

💻 **C++ Implementation**
~~~cpp
#include <iostream>
using namespace std;

struct Node {
    int data;
    Node* left;
    Node* right;
    Node(int v) : data(v), left(nullptr), right(nullptr) {}
};

Node* insert(Node* root, int key) {
    if (!root) return new Node(key);
    if (key < root->data) root->left = insert(root->left, key);
    else root->right = insert(root->right, key);
    return root;
}

void inorder(Node* root) {
    if (!root) return;
    inorder(root->left);
    cout << root->data << " ";
    inorder(root->right);
}

int main() {
    Node* root = nullptr;
    for (int v : {50, 30, 70, 20, 40, 60, 80}) root = insert(root, v);
    inorder(root); // 20 30 40 50 60 70 80
    return 0;
}
~~~

🔍 **Example BST**
~~~
        50
       /  \
     30    70
    / \    / \
  20  40  60  80
~~~

🌍 **Real-World Applications**
- File systems and DOM trees
- Database indexes (B-trees)
- Priority scheduling with heaps

📝 **Practice Problems**
- Maximum Depth of Binary Tree (Easy)
- Validate Binary Search Tree (Medium)
- Binary Tree Maximum Path Sum (Hard)

❓ **Interview Tips**
State the height assumption out loud, handle the empty tree first, and say whether recursion depth could overflow.`

const graphAnswer = `🎯 **Graphs Overview**
A graph is a set of vertices connected by edges, directed or undirected, weighted or not.

📊 **Complexity Analysis**
**BFS / DFS:** O(V + E) time, O(V) space
**Dijkstra (binary heap):** O((V + E) log V)
**Adjacency list:** O(V + E) space
**Adjacency matrix:** O(V²) space

🏗️ **Core Algorithms**
- **BFS:** layer by layer with a queue; shortest paths in unweighted graphs
- **DFS:** go deep with a stack or recursion; cycles, components, topological order
- **Dijkstra:** greedy shortest paths with non-negative weights
- **Topological sort:** ordering of a DAG's dependencies

💻 **C++ Implementation**
~~~cpp
#include <iostream>
#include <queue>
#include <vector>
using namespace std;

void bfs(const vector<vector<int>>& adj, int start) {
    vector<bool> visited(adj.size(), false);
    queue<int> q;
    q.push(start);
    visited[start] = true;
    while (!q.empty()) {
        int node = q.front();
        q.pop();
        cout << node << " ";
        for (int next : adj[node]) {
            if (!visited[next]) {
                visited[next] = true;
                q.push(next);
            }
        }
    }
}

int main() {
    vector<vector<int>> adj = {{1, 2}, {0, 3}, {0, 3}, {1, 2}};
    bfs(adj, 0); // 0 1 2 3
    return 0;
}
~~~

🔍 **Example**
~~~
0 --- 1
|     |
2 --- 3
~~~
BFS from 0 visits 0, then 1 and 2, then 3.

🌍 **Real-World Applications**
- Maps and route planning
- Social networks and recommendations
- Build systems and package dependency resolution

📝 **Practice Problems**
- Number of Islands (Medium)
- Course Schedule (Medium)
- Network Delay Time (Medium)

❓ **Interview Tips**
Clarify directed vs undirected and whether weights exist, then pick BFS, DFS or Dijkstra from that.`

const dpAnswer = `🎯 **Dynamic Programming Overview**
Dynamic programming solves problems with overlapping subproblems and optimal substructure by reusing stored results.

📊 **Complexity Analysis**
**Time:** number of states × work per state
**Space:** number of stored states, often reducible to a rolling window

🏗️ **Two Approaches**
- **Memoization (top-down):** recursion plus a cache
- **Tabulation (bottom-up):** fill a table from the base cases upward

💻 **C++ Implementation**
~~~cpp
#include <iostream>
#include <unordered_map>
#include <vector>
using namespace std;

unordered_map<int, long long> memo;

long long fibMemo(int n) {
    if (n <= 1) return n;
    auto it = memo.find(n);
    if (it != memo.end()) return it->second;
    return memo[n] = fibMemo(n - 1) + fibMemo(n - 2);
}

long long fibTable(int n) {
    if (n <= 1) return n;
    vector<long long> dp(n + 1);
    dp[1] = 1;
    for (int i = 2; i <= n; i++) dp[i] = dp[i - 1] + dp[i - 2];
    return dp[n];
}

long long fibRolling(int n) {
    if (n <= 1) return n;
    long long prev2 = 0, prev1 = 1;
    for (int i = 2; i <= n; i++) {
        long long cur = prev1 + prev2;
        prev2 = prev1;
        prev1 = cur;
    }
    return prev1;
}

int main() {
    cout << fibMemo(40) << " " << fibTable(40) << " " << fibRolling(40) << endl;
    return 0;
}
~~~

🔍 **Recipe**
1. Define the state in words
2. Write the transition between states
3. Fix the base cases
4. Choose the iteration order
5. Shrink the table if only recent rows are read

🌍 **Real-World Applications**
- Text diffing (edit distance)
- Resource allocation (knapsack)
- Speech recognition (Viterbi)

📝 **Practice Problems**
- Climbing Stairs (Easy)
- Coin Change (Medium)
- Longest Common Subsequence (Medium)

❓ **Interview Tips**
Start from the brute-force recursion, point at the repeated calls, then cache them before converting to a table.`

const stackAnswer = `🎯 **Stacks Overview**
A stack is a last-in, first-out (LIFO) collection: the most recently pushed element is popped first.

📊 **Complexity Analysis**
**Push / Pop / Top:** O(1)
**Search:** O(n)

💻 **C++ Implementation**
~~~cpp
#include <stack>
#include <string>
using namespace std;

bool balanced(const string& s) {
    stack<char> st;
    for (char c : s) {
        if (c == '(' || c == '[' || c == '{') st.push(c);
        else {
            if (st.empty()) return false;
            char open = st.top();
            st.pop();
            if ((c == ')' && open != '(') || (c == ']' && open != '[') || (c == '}' && open != '{')) return false;
        }
    }
    return st.empty();
}
~~~

🌍 **Real-World Applications**
- Undo history and browser back buttons
- Expression evaluation and parsing
- The call stack itself

📝 **Practice Problems**
- Valid Parentheses (Easy)
- Min Stack (Medium)
- Daily Temperatures (Medium, monotonic stack)`

const queueAnswer = `🎯 **Queues Overview**
A queue is a first-in, first-out (FIFO) collection: elements leave in the order they arrived.

📊 **Complexity Analysis**
**Enqueue / Dequeue / Front:** O(1)
**Search:** O(n)

💻 **C++ Implementation**
~~~cpp
#include <iostream>
#include <queue>
using namespace std;

int main() {
    queue<int> q;
    q.push(1);
    q.push(2);
    q.push(3);
    while (!q.empty()) {
        cout << q.front() << " "; // 1 2 3
        q.pop();
    }
    return 0;
}
~~~

🌍 **Real-World Applications**
- Task schedulers and print spoolers
- Breadth-first search
- Message brokers and request buffering

📝 **Practice Problems**
- Implement Queue using Stacks (Easy)
- Sliding Window Maximum (Hard, deque)
- Rotting Oranges (Medium, BFS)`

const hashAnswer = `🎯 **Hash Tables Overview**
A hash table maps keys to buckets through a hash function, giving constant average-time lookups.

📊 **Complexity Analysis**
**Insert / Lookup / Delete:** O(1) average, O(n) worst case
**Space:** O(n)

🏗️ **Collision Handling**
- **Chaining:** each bucket keeps a list of entries
- **Open addressing:** probe for the next free slot

💻 **C++ Implementation**
~~~cpp
#include <iostream>
#include <unordered_map>
#include <vector>
using namespace std;

vector<int> twoSum(const vector<int>& nums, int target) {
    unordered_map<int, int> seen;
    for (int i = 0; i < (int)nums.size(); i++) {
        auto it = seen.find(target - nums[i]);
        if (it != seen.end()) return {it->second, i};
        seen[nums[i]] = i;
    }
    return {};
}
~~~

🌍 **Real-World Applications**
- Caches and symbol tables
- De-duplication and counting
- Database hash joins

📝 **Practice Problems**
- Two Sum (Easy)
- Group Anagrams (Medium)
- Longest Consecutive Sequence (Medium)`

// genericAnswerTemplate takes the user's message as its only verb.
const genericAnswerTemplate = `🎯 **DSA Learning Path**

I can help you master Data Structures & Algorithms! Here is what I cover:

## 📚 **Core Data Structures**
- **Arrays & Strings** - the foundation of every other structure
- **Linked Lists** - dynamic memory and pointer manipulation
- **Stacks & Queues** - LIFO and FIFO processing
- **Trees** - hierarchical data (BST, AVL, heaps)
- **Graphs** - relationships and networks (BFS, DFS, shortest paths)
- **Hash Tables** - O(1) average lookups

## ⚡ **Essential Algorithms**
- **Sorting** - QuickSort, MergeSort, HeapSort
- **Searching** - binary search and hashing
- **Dynamic Programming** - optimal substructure
- **Greedy Algorithms** - local choices toward a global optimum
- **Backtracking** - systematic trial and error

## 💡 **For "%s" I can provide:**
- Theory with complexity analysis and trade-offs
- Working code examples with edge cases
- Step-by-step dry runs
- Practice problems and interview patterns

**What specific DSA topic would you like to explore in depth?**`
