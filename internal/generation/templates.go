package generation

// Template sources use [[ ]] delimiters so JSX braces pass through untouched.
var templateSources = map[Category]string{
	CategoryLogin: `import React, { useState } from 'react';

interface [[.Name]]Props {
  onSubmit?: (email: string, password: string) => void;
}

export default function [[.Name]]({ onSubmit }: [[.Name]]Props) {
  const [email, setEmail] = useState('');
  const [password, setPassword] = useState('');
  const [error, setError] = useState('');

  const handleSubmit = (e: React.FormEvent) => {
    e.preventDefault();
    if (!email || !password) {
      setError('Please fill in email and password');
      return;
    }
    setError('');
    onSubmit?.(email, password);
  };

  return (
    <div className="min-h-screen flex items-center justify-center bg-gray-50">
      <form onSubmit={handleSubmit} className="w-full max-w-sm bg-white p-8 rounded-lg shadow">
        <h1 className="text-2xl font-bold mb-2">Sign in</h1>
        <p className="text-gray-500 mb-6">[[jsx .Description]]</p>
        <label className="block mb-4">
          <span className="text-sm">Email</span>
          <input
            type="email"
            value={email}
            onChange={(e) => setEmail(e.target.value)}
            className="mt-1 w-full border rounded px-3 py-2"
          />
        </label>
        <label className="block mb-4">
          <span className="text-sm">Password</span>
          <input
            type="password"
            value={password}
            onChange={(e) => setPassword(e.target.value)}
            className="mt-1 w-full border rounded px-3 py-2"
          />
        </label>
        {error && <p className="text-red-600 text-sm mb-4">{error}</p>}
        <button type="submit" className="w-full bg-blue-600 text-white rounded py-2">
          Sign in
        </button>
      </form>
    </div>
  );
}
`,

	CategoryDashboard: `import React, { useState } from 'react';

interface Stat {
  label: string;
  value: number;
  change: number;
}

const initialStats: Stat[] = [
  { label: 'Users', value: 1280, change: 12 },
  { label: 'Revenue', value: 48200, change: 8 },
  { label: 'Orders', value: 342, change: -3 },
  { label: 'Conversion', value: 4, change: 1 },
];

export default function [[.Name]]() {
  const [stats] = useState<Stat[]>(initialStats);

  return (
    <div className="p-6">
      <h1 className="text-2xl font-bold">[[.Name]]</h1>
      <p className="text-gray-500 mb-6">[[jsx .Description]]</p>
      <div className="grid grid-cols-1 md:grid-cols-2 lg:grid-cols-4 gap-4">
        {stats.map((stat) => (
          <div key={stat.label} className="bg-white rounded-lg shadow p-4">
            <p className="text-sm text-gray-500">{stat.label}</p>
            <p className="text-3xl font-semibold">{stat.value.toLocaleString()}</p>
            <p className={stat.change >= 0 ? 'text-green-600' : 'text-red-600'}>
              {stat.change >= 0 ? '+' : ''}
              {stat.change}%
            </p>
          </div>
        ))}
      </div>
    </div>
  );
}
`,

	CategoryCounter: `import React, { useState } from 'react';

interface [[.Name]]Props {
  initial?: number;
  min?: number;
  max?: number;
}

export default function [[.Name]]({ initial = 0, min, max }: [[.Name]]Props) {
  const [count, setCount] = useState(initial);

  const increment = () => setCount((c) => (max !== undefined && c >= max ? c : c + 1));
  const decrement = () => setCount((c) => (min !== undefined && c <= min ? c : c - 1));
  const reset = () => setCount(initial);

  return (
    <div className="flex flex-col items-center gap-4 p-6">
      <p className="text-gray-500">[[jsx .Description]]</p>
      <span className="text-5xl font-bold">{count}</span>
      <div className="flex gap-2">
        <button onClick={decrement} disabled={min !== undefined && count <= min} className="px-4 py-2 border rounded">
          -
        </button>
        <button onClick={reset} className="px-4 py-2 border rounded">
          Reset
        </button>
        <button onClick={increment} disabled={max !== undefined && count >= max} className="px-4 py-2 border rounded">
          +
        </button>
      </div>
    </div>
  );
}
`,

	CategoryTodoList: `import React, { useState } from 'react';

interface Todo {
  id: number;
  text: string;
  done: boolean;
}

type Filter = 'all' | 'active' | 'completed';

export default function [[.Name]]() {
  const [todos, setTodos] = useState<Todo[]>([]);
  const [text, setText] = useState('');
  const [filter, setFilter] = useState<Filter>('all');

  const add = () => {
    const value = text.trim();
    if (!value) return;
    setTodos((items) => [...items, { id: Date.now(), text: value, done: false }]);
    setText('');
  };
  const toggle = (id: number) =>
    setTodos((items) => items.map((t) => (t.id === id ? { ...t, done: !t.done } : t)));
  const remove = (id: number) => setTodos((items) => items.filter((t) => t.id !== id));
  const clearCompleted = () => setTodos((items) => items.filter((t) => !t.done));

  const visible = todos.filter((t) => (filter === 'all' ? true : filter === 'active' ? !t.done : t.done));

  return (
    <div className="max-w-md mx-auto p-6">
      <h1 className="text-2xl font-bold">[[.Name]]</h1>
      <p className="text-gray-500 mb-4">[[jsx .Description]]</p>
      <div className="flex gap-2 mb-4">
        <input
          value={text}
          onChange={(e) => setText(e.target.value)}
          onKeyDown={(e) => e.key === 'Enter' && add()}
          className="flex-1 border rounded px-3 py-2"
          placeholder="What needs to be done?"
        />
        <button onClick={add} className="px-4 py-2 bg-blue-600 text-white rounded">
          Add
        </button>
      </div>
      <ul>
        {visible.map((todo) => (
          <li key={todo.id} className="flex items-center gap-2 py-1">
            <input type="checkbox" checked={todo.done} onChange={() => toggle(todo.id)} />
            <span className={todo.done ? 'line-through text-gray-400 flex-1' : 'flex-1'}>{todo.text}</span>
            <button onClick={() => remove(todo.id)} className="text-red-600">
              Delete
            </button>
          </li>
        ))}
      </ul>
      <div className="flex gap-2 mt-4 text-sm">
        {(['all', 'active', 'completed'] as Filter[]).map((f) => (
          <button key={f} onClick={() => setFilter(f)} className={filter === f ? 'font-bold' : ''}>
            {f}
          </button>
        ))}
        <button onClick={clearCompleted} className="ml-auto">
          Clear completed
        </button>
      </div>
    </div>
  );
}
`,

	CategoryGeneric: `import React from 'react';

interface [[.Name]]Props {
  title?: string;
}

export default function [[.Name]]({ title = '[[js .Name]]' }: [[.Name]]Props) {
  return (
    <section className="p-6">
      <h1 className="text-2xl font-bold mb-2">{title}</h1>
      <p className="text-gray-600">[[jsx .Description]]</p>
    </section>
  );
}
`,
}
